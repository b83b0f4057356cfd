package auth

import "user-service/internal/rbac"

// Identity is the verified caller, built once per request from an access token.
type Identity struct {
	Username string
	Subject  string
	ClientID string
	// RawGroups are the cognito:groups claim values as issued.
	RawGroups []string
	// Groups holds only the recognized roles from RawGroups.
	Groups rbac.Groups
}

func NewIdentity(username, subject, clientID string, groups []string) *Identity {
	raw := make([]string, len(groups))
	copy(raw, groups)
	return &Identity{
		Username:  username,
		Subject:   subject,
		ClientID:  clientID,
		RawGroups: raw,
		Groups:    rbac.NewGroups(groups...),
	}
}
