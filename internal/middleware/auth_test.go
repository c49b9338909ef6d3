package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/shared"
)

// stubProvider resolves access tokens through lookup; every other call is unused here.
type stubProvider struct {
	lookup func(token string) (*shared.ProviderUser, error)
	calls  int
}

func (s *stubProvider) SignIn(context.Context, string, string) (*shared.ProviderUser, *shared.Session, error) {
	return nil, nil, errors.New("not implemented")
}
func (s *stubProvider) SignOut(context.Context, string) error { return nil }
func (s *stubProvider) SignUp(context.Context, shared.SignUpRequest) (*shared.ProviderUser, error) {
	return nil, errors.New("not implemented")
}
func (s *stubProvider) RefreshSession(context.Context, string) (*shared.Session, error) {
	return nil, errors.New("not implemented")
}
func (s *stubProvider) GetUserByAccessToken(_ context.Context, token string) (*shared.ProviderUser, error) {
	s.calls++
	return s.lookup(token)
}
func (s *stubProvider) SendPasswordReset(context.Context, string) error                  { return nil }
func (s *stubProvider) UpdatePassword(context.Context, string, string) error             { return nil }
func (s *stubProvider) SendEmailVerification(context.Context, string) error              { return nil }
func (s *stubProvider) DeleteUser(context.Context, string) error                         { return nil }
func (s *stubProvider) EachUser(context.Context, func(*shared.ProviderUser) error) error { return nil }

func newGatedRouter(provider shared.IdentityProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	transport := cookie.NewTransport(cookie.DefaultPolicy(""))
	r.GET("/protected", AuthMiddleware(provider, transport, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    common.GetUserIDFromContext(c),
			"email": common.GetUserEmailFromContext(c),
		})
	})
	return r
}

func callProtected(t *testing.T, r *gin.Engine, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookie.AccessTokenName, Value: token})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		lookup      func(string) (*shared.ProviderUser, error)
		wantStatus  int
		wantMessage string
		wantCalls   int
	}{
		{
			name:        "missing cookie",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: MsgAccessTokenMissing,
		},
		{
			name:  "token rejected by provider",
			token: "expired",
			lookup: func(string) (*shared.ProviderUser, error) {
				return nil, &shared.ProviderError{Message: "TOKEN_EXPIRED", Status: http.StatusUnauthorized}
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: MsgInvalidToken,
			wantCalls:   1,
		},
		{
			name:  "user without email",
			token: "anon",
			lookup: func(string) (*shared.ProviderUser, error) {
				return &shared.ProviderUser{ID: "uid-2"}, nil
			},
			wantStatus:  http.StatusForbidden,
			wantMessage: MsgUserUnresolvable,
			wantCalls:   1,
		},
		{
			name:  "provider unavailable",
			token: "tok",
			lookup: func(string) (*shared.ProviderUser, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgAuthInternal,
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{lookup: tt.lookup}
			rec, body := callProtected(t, newGatedRouter(provider), tt.token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
			assert.Contains(t, body, "data")
			assert.Nil(t, body["data"])
			assert.Equal(t, tt.wantCalls, provider.calls)
		})
	}
}

func TestAuthMiddleware_SetsIdentity(t *testing.T) {
	provider := &stubProvider{lookup: func(token string) (*shared.ProviderUser, error) {
		require.Equal(t, "good", token)
		return &shared.ProviderUser{ID: "uid-1", Email: "a@b.com"}, nil
	}}

	rec, body := callProtected(t, newGatedRouter(provider), "good")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uid-1", body["id"])
	assert.Equal(t, "a@b.com", body["email"])
}
