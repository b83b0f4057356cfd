package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-service/internal/auth"
	"user-service/internal/domain/user"
	"user-service/internal/rbac"
	"user-service/internal/rbac/presets"
	"user-service/pkg/validator"
)

func TestParseRequestedFields(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []rbac.Field
	}{
		{"empty falls back to defaults", nil, rbac.DefaultFields},
		{"blank values fall back to defaults", []string{" , "}, rbac.DefaultFields},
		{"comma separated", []string{"email,phone_number"}, []rbac.Field{rbac.FieldEmail, rbac.FieldPhoneNumber}},
		{"repeated", []string{"groups", "active"}, []rbac.Field{rbac.FieldGroups, rbac.FieldActive}},
		{"duplicates keep first position", []string{"email, picture", "email"}, []rbac.Field{rbac.FieldEmail, rbac.FieldPicture}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRequestedFields(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRequestedFieldsUnknown(t *testing.T) {
	_, err := parseRequestedFields([]string{"email,salary"})
	assert.ErrorIs(t, err, rbac.ErrInvalidField)
}

type stubLister struct {
	called bool
}

func (s *stubLister) ListUsers(context.Context, user.ListUsersInput) (*user.ListUsersOutput, error) {
	s.called = true
	return &user.ListUsersOutput{}, nil
}

func TestListUsersWithoutAuditLogger(t *testing.T) {
	e := echo.New()
	e.Validator = validator.New()

	lister := &stubLister{}
	h := NewUsersHandler(lister, rbac.MustNew(presets.UserPool()), 10, nil)

	req := httptest.NewRequest(http.MethodGet, "/users?requestedFields=phone_number", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(auth.ContextKeyIdentity, auth.NewIdentity("ursula", "s", "c", []string{"user"}))

	var err error
	assert.NotPanics(t, func() { err = h.ListUsers(c) })
	assert.ErrorIs(t, err, rbac.ErrFieldAccessDenied)
	assert.False(t, lister.called)
}
