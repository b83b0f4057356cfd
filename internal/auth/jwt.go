package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CognitoClaims are the claims of a Cognito user pool access token.
type CognitoClaims struct {
	Username string   `json:"username"`
	Groups   []string `json:"cognito:groups"`
	ClientID string   `json:"client_id"`
	TokenUse string   `json:"token_use"`
	Scope    string   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns a bearer token into a verified Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// CognitoVerifier checks RS256 access tokens issued by one user pool for one app client.
type CognitoVerifier struct {
	keys     KeySource
	issuer   string
	clientID string
	parser   *jwt.Parser
}

type VerifierOption func(*verifierOptions)

type verifierOptions struct {
	leeway time.Duration
	now    func() time.Time
}

func WithLeeway(d time.Duration) VerifierOption {
	return func(o *verifierOptions) { o.leeway = d }
}

// WithClock overrides the time source used for exp and nbf checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(o *verifierOptions) { o.now = now }
}

func NewCognitoVerifier(keys KeySource, issuer, clientID string, opts ...VerifierOption) *CognitoVerifier {
	o := verifierOptions{leeway: defaultClockSkew}
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(o.leeway),
	}
	if o.now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(o.now))
	}

	return &CognitoVerifier{
		keys:     keys,
		issuer:   issuer,
		clientID: clientID,
		parser:   jwt.NewParser(parserOpts...),
	}
}

func (v *CognitoVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &CognitoClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf(msgUnexpectedSigningMethod, token.Header["alg"])
		}
		kid, _ := token.Header[headerKeyID].(string)
		if kid == "" {
			return nil, fmt.Errorf(msgMissingKeyID)
		}
		return v.keys.LookupKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf(msgTokenParseFailed, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf(msgInvalidTokenClaims)
	}

	if claims.TokenUse != tokenUseAccess {
		return nil, fmt.Errorf(msgWrongTokenUseFmt, tokenUseAccess, claims.TokenUse)
	}
	if claims.ClientID != v.clientID {
		return nil, fmt.Errorf(msgWrongClientIDFmt, claims.ClientID)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf(msgMissingUsername)
	}

	return NewIdentity(claims.Username, claims.Subject, claims.ClientID, claims.Groups), nil
}
