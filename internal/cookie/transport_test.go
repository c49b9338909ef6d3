package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"session_broker_backend/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestIssue_ExpiryPolicy(t *testing.T) {
	tr := NewTransport(DefaultPolicy(""))
	session := &shared.Session{AccessToken: "access", RefreshToken: "refresh"}

	tests := []struct {
		name        string
		remember    bool
		wantAccess  int
		wantRefresh int
		wantMillis  int64
	}{
		{"remember", true, 86400, 2592000, 86400000},
		{"default", false, 900, 604800, 900000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tr.Issue(session, tt.remember)
			assert.Equal(t, tt.wantAccess, p.Access.MaxAge)
			assert.Equal(t, tt.wantRefresh, p.Refresh.MaxAge)
			assert.Equal(t, tt.wantMillis, p.ExpiresInMillis())
			assert.Equal(t, "access", p.Access.Value)
			assert.Equal(t, "refresh", p.Refresh.Value)
		})
	}
}

func TestWrite_AppliesPolicy(t *testing.T) {
	tr := NewTransport(DefaultPolicy("example.com"))
	rec := httptest.NewRecorder()
	tr.Write(rec, tr.Issue(&shared.Session{AccessToken: "a", RefreshToken: "r"}, false))

	got := cookiesByName(rec)
	require.Len(t, got, 2)
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		c := got[name]
		require.NotNil(t, c, name)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, "example.com", c.Domain)
	}
}

func TestRead_AbsentIsEmpty(t *testing.T) {
	tr := NewTransport(DefaultPolicy(""))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, tr.AccessToken(req))
	assert.Empty(t, tr.RefreshToken(req))

	req.AddCookie(&http.Cookie{Name: RefreshTokenName, Value: "r1"})
	assert.Empty(t, tr.AccessToken(req))
	assert.Equal(t, "r1", tr.RefreshToken(req))
}

func TestClear_ExpiresBothCookies(t *testing.T) {
	tr := NewTransport(DefaultPolicy(""))
	rec := httptest.NewRecorder()
	tr.Clear(rec)

	got := cookiesByName(rec)
	require.Len(t, got, 2)
	assert.Empty(t, got[AccessTokenName].Value)
	assert.Equal(t, -1, got[AccessTokenName].MaxAge)
	assert.Equal(t, -1, got[RefreshTokenName].MaxAge)
}

func TestPolicy_IsACopy(t *testing.T) {
	tr := NewTransport(DefaultPolicy(""))
	p := tr.Policy()
	p.Secure = false
	assert.True(t, tr.Policy().Secure)
}

func TestDefaultPolicy_AlwaysSecureCrossSite(t *testing.T) {
	for _, domain := range []string{"", "example.com"} {
		p := DefaultPolicy(domain)
		assert.True(t, p.Secure, domain)
		assert.True(t, p.HTTPOnly, domain)
		assert.Equal(t, http.SameSiteNoneMode, p.SameSite, domain)
	}

	rec := httptest.NewRecorder()
	NewTransport(DefaultPolicy("")).Clear(rec)
	for name, c := range cookiesByName(rec) {
		assert.True(t, c.Secure, name)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite, name)
	}
}
