package auth

import "time"

const (
	ContextKeyIdentity = "identity"

	headerAuthorization = "Authorization"

	bearerScheme    = "bearer"
	authHeaderParts = 2

	tokenUseAccess = "access"
	headerKeyID    = "kid"

	defaultClockSkew = 30 * time.Second
)

const (
	msgMissingAuthorization    = "missing authorization token"
	msgInvalidOrExpiredToken   = "invalid or expired token"
	msgUserNotAuthenticated    = "user not authenticated"
	msgInvalidIdentityCtx      = "invalid identity in context"
	msgAccessDenied            = "access denied"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgMissingKeyID            = "token header has no kid"
	msgKeyNotFoundFmt          = "no signing key for kid %q"
	msgKeyFetchFailed          = "failed to fetch signing keys: %w"
	msgKeyRawFailed            = "failed to decode signing key: %w"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
	msgWrongTokenUseFmt        = "token_use must be %q, got %q"
	msgWrongClientIDFmt        = "token issued for client %q"
	msgMissingUsername         = "token has no username"
	msgJWKSRegisterFailed      = "failed to register jwks url: %w"
)
