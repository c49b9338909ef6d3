// Package cookie carries provider session tokens in browser cookies.
package cookie

import (
	"net/http"
	"time"

	"session_broker_backend/internal/shared"
)

// Cookie names are part of the client contract.
const (
	AccessTokenName  = "accesstoken"
	RefreshTokenName = "refreshtoken"
)

// Policy holds the attributes shared by both auth cookies.
type Policy struct {
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Path     string
	Domain   string
}

// DefaultPolicy returns the httpOnly, secure, SameSite=None, path=/ policy.
// Browsers drop SameSite=None cookies that are not Secure.
func DefaultPolicy(domain string) Policy {
	return Policy{
		HTTPOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Path:     "/",
		Domain:   domain,
	}
}

// Lifetimes are the max ages of the access and refresh cookies.
type Lifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

var (
	RememberLifetimes = Lifetimes{Access: 24 * time.Hour, Refresh: 30 * 24 * time.Hour}
	DefaultLifetimes  = Lifetimes{Access: 15 * time.Minute, Refresh: 7 * 24 * time.Hour}
)

// LifetimesFor picks the expiry policy for the remember-me flag.
func LifetimesFor(remember bool) Lifetimes {
	if remember {
		return RememberLifetimes
	}
	return DefaultLifetimes
}

// Pair is the access/refresh cookie pair for one session.
type Pair struct {
	Access  *http.Cookie
	Refresh *http.Cookie
	// AccessTTL is the access cookie lifetime reported to clients as tokenExpiresIn.
	AccessTTL time.Duration
}

// ExpiresInMillis is AccessTTL in milliseconds.
func (p Pair) ExpiresInMillis() int64 {
	return p.AccessTTL.Milliseconds()
}

// Transport encodes and decodes auth cookies under a fixed Policy.
type Transport struct {
	policy Policy
}

// NewTransport creates a Transport. The policy is copied and never changed afterwards.
func NewTransport(policy Policy) *Transport {
	return &Transport{policy: policy}
}

// Policy returns a copy of the transport's cookie policy.
func (t *Transport) Policy() Policy {
	return t.policy
}

func (t *Transport) build(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		Path:     t.policy.Path,
		Domain:   t.policy.Domain,
		Secure:   t.policy.Secure,
		HttpOnly: t.policy.HTTPOnly,
		SameSite: t.policy.SameSite,
	}
}

// Issue builds the cookie pair for session with the remember-me expiry policy.
func (t *Transport) Issue(session *shared.Session, remember bool) Pair {
	lt := LifetimesFor(remember)
	return Pair{
		Access:    t.build(AccessTokenName, session.AccessToken, lt.Access),
		Refresh:   t.build(RefreshTokenName, session.RefreshToken, lt.Refresh),
		AccessTTL: lt.Access,
	}
}

// Write sets both cookies on the response, replacing any previous pair.
func (t *Transport) Write(w http.ResponseWriter, p Pair) {
	http.SetCookie(w, p.Access)
	http.SetCookie(w, p.Refresh)
}

// Clear expires both cookies on the client.
func (t *Transport) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		c := t.build(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// AccessToken returns the access token cookie value, or "" when absent.
func (t *Transport) AccessToken(r *http.Request) string {
	return read(r, AccessTokenName)
}

// RefreshToken returns the refresh token cookie value, or "" when absent.
func (t *Transport) RefreshToken(r *http.Request) string {
	return read(r, RefreshTokenName)
}
