package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/domain/user"
	"user-service/internal/rbac"
	"user-service/internal/rbac/presets"
)

type tokenVerifier map[string]*auth.Identity

func (v tokenVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return nil, errors.New("invalid token")
}

type fakeDirectory struct {
	mu         sync.Mutex
	exists     bool
	existsErr  error
	createErr  error
	existCalls int
	created    []user.CreateUserInput
	listInput  *user.ListUsersInput
	listOutput *user.ListUsersOutput
}

func (f *fakeDirectory) UserExists(_ context.Context, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existCalls++
	return f.exists, f.existsErr
}

func (f *fakeDirectory) CreateUser(_ context.Context, in user.CreateUserInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, in)
	return in.Email, nil
}

func (f *fakeDirectory) ListUsers(_ context.Context, in user.ListUsersInput) (*user.ListUsersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listInput = &in
	if f.listOutput == nil {
		return &user.ListUsersOutput{}, nil
	}
	return f.listOutput, nil
}

type fakePictures struct {
	key         string
	contentType string
	author      string
	putErr      error
	missing     bool
}

func (f *fakePictures) PutPicture(_ context.Context, key string, _ []byte, contentType, author string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.key, f.contentType, f.author = key, contentType, author
	return nil
}

func (f *fakePictures) Exists(_ context.Context, _ string) (bool, error) {
	return !f.missing, nil
}

func (f *fakePictures) GeneratePresignedDownloadURL(_ context.Context, key string) (string, error) {
	return "https://pictures.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc", nil
}

func (f *fakePictures) PresignedURLExpiry() time.Duration {
	return 15 * time.Minute
}

type testServer struct {
	handler  stdhttp.Handler
	users    *fakeDirectory
	pictures *fakePictures
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	verifier := tokenVerifier{
		"no-roles":     auth.NewIdentity("nobody", "s0", "c", nil),
		"unknown-role": auth.NewIdentity("staff", "s1", "c", []string{"Everyone"}),
		"guest":        auth.NewIdentity("gina", "s2", "c", []string{"guest"}),
		"user":         auth.NewIdentity("ursula", "s3", "c", []string{"user"}),
		"admin":        auth.NewIdentity("adam", "s4", "c", []string{"admin"}),
		"system-admin": auth.NewIdentity("sam", "s5", "c", []string{"system_admin"}),
	}

	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	engine := rbac.MustNew(presets.UserPool(), rbac.WithMetrics(rbac.NewMetrics(registry)), rbac.WithLogger(logger))
	auditLogger := audit.NewLogger(logger)

	ts := &testServer{users: &fakeDirectory{}, pictures: &fakePictures{}}

	srv, err := NewServer(&ServerDependencies{
		Config: &config.Config{
			S3:  config.S3Config{MaxPictureSize: 5 * 1024 * 1024},
			App: config.AppConfig{DefaultPictureURL: "https://example.com/default.jpg", UsersPageSize: 10},
		},
		Logger:         logger,
		Registry:       registry,
		Engine:         engine,
		AuthMiddleware: auth.NewMiddleware(verifier, logger),
		RBACMiddleware: auth.NewRBACMiddleware(engine, auditLogger),
		Users:          ts.users,
		Pictures:       ts.pictures,
		AuditLogger:    auditLogger,
	})
	require.NoError(t, err)

	ts.handler = srv.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, req *stdhttp.Request, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	body := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func createUserRequest(role string) *stdhttp.Request {
	payload := `{"fullName":"Bob Builder","email":"Bob@Example.com","userRole":"` + role + `","phoneNumber":"+385911234567"}`
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/admin/create", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ============================================================================
// Authentication and route authorization
// ============================================================================

func TestProtectedRoutesWithoutRoles(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", stdhttp.StatusUnauthorized},
		{"invalid token", "forged", stdhttp.StatusUnauthorized},
		{"no groups", "no-roles", stdhttp.StatusForbidden},
		{"only unrecognized groups", "unknown-role", stdhttp.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, req := range []*stdhttp.Request{
				httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users", nil),
				createUserRequest("user"),
				httptest.NewRequest(stdhttp.MethodGet, "/api/v1/pictures/0b8f9c62-5d7c-4a0e-9b8e-3a3c2f0d1e11/download-url", nil),
			} {
				rec, body := ts.do(t, req, tt.token)
				assert.Equal(t, tt.status, rec.Code, req.URL.Path)
				assert.NotEmpty(t, body["request_id"])
			}
		})
	}

	assert.Equal(t, 0, ts.users.existCalls)
	assert.Empty(t, ts.users.created)
	assert.Nil(t, ts.users.listInput)
}

func TestRouteRoles(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		req    func() *stdhttp.Request
		status int
	}{
		{"user cannot create", "user", func() *stdhttp.Request { return createUserRequest("guest") }, stdhttp.StatusForbidden},
		{"guest cannot list", "guest", func() *stdhttp.Request { return httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users", nil) }, stdhttp.StatusForbidden},
		{"guest cannot download", "guest", func() *stdhttp.Request {
			return httptest.NewRequest(stdhttp.MethodGet, "/api/v1/pictures/0b8f9c62-5d7c-4a0e-9b8e-3a3c2f0d1e11/download-url", nil)
		}, stdhttp.StatusForbidden},
		{"user downloads", "user", func() *stdhttp.Request {
			return httptest.NewRequest(stdhttp.MethodGet, "/api/v1/pictures/0b8f9c62-5d7c-4a0e-9b8e-3a3c2f0d1e11/download-url", nil)
		}, stdhttp.StatusOK},
		{"user lists", "user", func() *stdhttp.Request { return httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users", nil) }, stdhttp.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := ts.do(t, tt.req(), tt.token)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

// ============================================================================
// Create user
// ============================================================================

func TestAdminCreatesUser(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, createUserRequest("user"), "admin")

	assert.Equal(t, stdhttp.StatusCreated, rec.Code)
	assert.Equal(t, "bob@example.com", body["username"])
	assert.Equal(t, 1, ts.users.existCalls)
	require.Len(t, ts.users.created, 1)
	assert.Equal(t, rbac.RoleUser, ts.users.created[0].Role)
	assert.Equal(t, "https://example.com/default.jpg", ts.users.created[0].Picture)
}

func TestAdminCannotCreateSystemAdmin(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, createUserRequest("system_admin"), "admin")

	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	assert.Equal(t, "user with roles [admin] is not allowed to create user with role system_admin", body["error"])
	assert.Equal(t, 0, ts.users.existCalls)
	assert.Empty(t, ts.users.created)
}

func TestCreateUserRoleCombinations(t *testing.T) {
	tests := []struct {
		token  string
		role   string
		status int
	}{
		{"system-admin", "system_admin", stdhttp.StatusForbidden},
		{"admin", "admin", stdhttp.StatusForbidden},
		{"system-admin", "admin", stdhttp.StatusCreated},
		{"system-admin", "user", stdhttp.StatusCreated},
		{"admin", "guest", stdhttp.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.token+"->"+tt.role, func(t *testing.T) {
			ts := newTestServer(t)
			rec, _ := ts.do(t, createUserRequest(tt.role), tt.token)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCreateUserConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.users.exists = true

	rec, body := ts.do(t, createUserRequest("user"), "admin")

	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	assert.Equal(t, "user already exists", body["error"])
	assert.Empty(t, ts.users.created)
}

func TestCreateUserUsernameTaken(t *testing.T) {
	ts := newTestServer(t)
	ts.users.createErr = user.ErrAlreadyExists

	rec, _ := ts.do(t, createUserRequest("user"), "admin")
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
}

func TestCreateUserDownstreamFailureHidesDetails(t *testing.T) {
	ts := newTestServer(t)
	ts.users.existsErr = errors.New("AccessDeniedException: arn:aws:cognito-idp:secret")

	rec, body := ts.do(t, createUserRequest("user"), "admin")

	assert.Equal(t, stdhttp.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, rec.Body.String(), "arn:aws")
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body["request_id"])
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		status  int
	}{
		{"short name", `{"fullName":"Bo","email":"bob@example.com","userRole":"user","phoneNumber":"+385911234567"}`, stdhttp.StatusBadRequest},
		{"bad email", `{"fullName":"Bob Builder","email":"bob","userRole":"user","phoneNumber":"+385911234567"}`, stdhttp.StatusBadRequest},
		{"unknown role", `{"fullName":"Bob Builder","email":"bob@example.com","userRole":"root","phoneNumber":"+385911234567"}`, stdhttp.StatusBadRequest},
		{"bad phone", `{"fullName":"Bob Builder","email":"bob@example.com","userRole":"user","phoneNumber":"0911234567"}`, stdhttp.StatusBadRequest},
		{"unknown field", `{"fullName":"Bob Builder","email":"bob@example.com","userRole":"user","phoneNumber":"+385911234567","admin":true}`, stdhttp.StatusBadRequest},
		{"not json", `fullName=Bob`, stdhttp.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/admin/create", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")

			rec, _ := ts.do(t, req, "admin")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, 0, ts.users.existCalls)
		})
	}
}

// ============================================================================
// List users
// ============================================================================

func TestUserCannotListPrivilegedFields(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users?requestedFields=email&requestedFields=phone_number", nil)
	rec, body := ts.do(t, req, "user")

	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	assert.Equal(t, []any{"phone_number"}, body["fields"])
	assert.Contains(t, body["error"], "phone_number")
	assert.Nil(t, ts.users.listInput)
}

func TestAdminListsPrivilegedFields(t *testing.T) {
	ts := newTestServer(t)
	ts.users.listOutput = &user.ListUsersOutput{
		PaginationToken: "next-page",
		Users: []user.User{{
			Username: "bob@example.com",
			Attributes: map[string]string{
				user.AttrEmail:       "bob@example.com",
				user.AttrPhoneNumber: "+385911234567",
				user.AttrName:        "Bob Builder",
			},
			Enabled: true,
		}},
	}

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users?requestedFields=email,phone_number", nil)
	rec, body := ts.do(t, req, "admin")

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "next-page", body["paginationToken"])
	assert.Equal(t, []any{map[string]any{
		"email":        "bob@example.com",
		"phone_number": "+385911234567",
	}}, body["users"])

	require.NotNil(t, ts.users.listInput)
	assert.Equal(t, []string{user.AttrEmail, user.AttrPhoneNumber}, ts.users.listInput.Attributes)
	assert.False(t, ts.users.listInput.WithGroups)
	assert.Equal(t, int64(10), ts.users.listInput.Limit)
}

func TestListUsersDefaults(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users?limit=3&paginationToken=abc", nil)
	rec, body := ts.do(t, req, "user")

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["users"])
	assert.Equal(t, []string{user.AttrName, user.AttrEmail, user.AttrPicture}, ts.users.listInput.Attributes)
	assert.Equal(t, int64(3), ts.users.listInput.Limit)
	assert.Equal(t, "abc", ts.users.listInput.PaginationToken)
}

func TestListUsersGroupsAndActive(t *testing.T) {
	ts := newTestServer(t)
	ts.users.listOutput = &user.ListUsersOutput{Users: []user.User{{
		Username: "bob@example.com",
		Enabled:  false,
		Groups:   []string{"user"},
	}}}

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users?requestedFields=groups,active", nil)
	rec, body := ts.do(t, req, "system-admin")

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.True(t, ts.users.listInput.WithGroups)
	assert.Equal(t, []any{map[string]any{"groups": []any{"user"}, "active": false}}, body["users"])
}

func TestListUsersBadQuery(t *testing.T) {
	tests := []string{
		"/api/v1/users?requestedFields=salary",
		"/api/v1/users?limit=61",
		"/api/v1/users?limit=-1",
		"/api/v1/users?limit=ten",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			ts := newTestServer(t)
			rec, _ := ts.do(t, httptest.NewRequest(stdhttp.MethodGet, url, nil), "admin")
			assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
			assert.Nil(t, ts.users.listInput)
		})
	}
}

// ============================================================================
// Pictures
// ============================================================================

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *stdhttp.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "me.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/pictures/upload-picture", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadPicture(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, uploadRequest(t, "profilePicture", pngBytes(t)), "user")

	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	assert.Equal(t, ts.pictures.key, body["pictureKey"])
	assert.Equal(t, "image/png", ts.pictures.contentType)
	assert.Equal(t, "ursula", ts.pictures.author)
}

func TestUploadPictureRejects(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		field  string
		data   []byte
		status int
	}{
		{"guest", "guest", "profilePicture", []byte("\x89PNG\r\n\x1a\n"), stdhttp.StatusForbidden},
		{"wrong field", "user", "avatar", []byte("\x89PNG\r\n\x1a\n"), stdhttp.StatusBadRequest},
		{"not an image", "user", "profilePicture", []byte("%PDF-1.4 not a picture"), stdhttp.StatusBadRequest},
		{"empty", "user", "profilePicture", []byte{}, stdhttp.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec, _ := ts.do(t, uploadRequest(t, tt.field, tt.data), tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, ts.pictures.key)
		})
	}
}

func TestDownloadURL(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/pictures/0b8f9c62-5d7c-4a0e-9b8e-3a3c2f0d1e11/download-url", nil)
	rec, body := ts.do(t, req, "user")

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, body["url"], "0b8f9c62-5d7c-4a0e-9b8e-3a3c2f0d1e11")
	assert.Equal(t, float64(900), body["expiresIn"])

	req = httptest.NewRequest(stdhttp.MethodGet, "/api/v1/pictures/not-a-uuid/download-url", nil)
	rec, _ = ts.do(t, req, "user")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	ts.pictures.missing = true
	req = httptest.NewRequest(stdhttp.MethodGet, "/api/v1/pictures/0b8f9c62-5d7c-4a0e-9b8e-3a3c2f0d1e11/download-url", nil)
	rec, body = ts.do(t, req, "user")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "picture not found", body["error"])
}

// ============================================================================
// Unauthenticated endpoints
// ============================================================================

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, httptest.NewRequest(stdhttp.MethodGet, "/health", nil), "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	ts.do(t, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/users", nil), "guest")

	rec, _ = ts.do(t, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil), "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `userservice_rbac_decisions_total{decision="deny",route="users.list"} 1`)
	assert.Contains(t, rec.Body.String(), "userservice_http_requests_total")
}
