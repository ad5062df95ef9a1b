package httpserver

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "olasis_session"

// SessionHeader carries an explicit session ID.
const SessionHeader = "X-Session-ID"

// sessionIDRule bounds client-supplied session IDs.
const sessionIDRule = "required,max=128,printascii"

// sessionResolver maps requests to session IDs and issues the signed cookie.
type sessionResolver struct {
	validate *validator.Validate
	codec    *securecookie.SecureCookie
	name     string
	secure   bool
	maxAge   time.Duration
}

// newSessionResolver creates a resolver. An empty key generates a random one,
// so cookies do not survive a restart.
func newSessionResolver(validate *validator.Validate, key []byte, name string, secure bool, maxAge time.Duration) *sessionResolver {
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	if name == "" {
		name = DefaultCookieName
	}
	codec := securecookie.New(key, nil)
	if maxAge > 0 {
		codec.MaxAge(int(maxAge.Seconds()))
	}
	return &sessionResolver{validate: validate, codec: codec, name: name, secure: secure, maxAge: maxAge}
}

// resolve returns the session ID for r. explicit (from a request body or
// query) wins, then the X-Session-ID header, then the signed cookie. A new
// ID is generated when none is usable.
func (sr *sessionResolver) resolve(r *http.Request, explicit string) string {
	if sr.valid(explicit) {
		return explicit
	}
	if h := r.Header.Get(SessionHeader); sr.valid(h) {
		return h
	}
	if c, err := r.Cookie(sr.name); err == nil {
		var id string
		if err := sr.codec.Decode(sr.name, c.Value, &id); err == nil && sr.valid(id) {
			return id
		}
	}
	return uuid.NewString()
}

// cookie returns the signed session cookie for id, or nil when encoding fails.
func (sr *sessionResolver) cookie(id string) *http.Cookie {
	value, err := sr.codec.Encode(sr.name, id)
	if err != nil {
		return nil
	}
	c := &http.Cookie{
		Name:     sr.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   sr.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if sr.maxAge > 0 {
		c.MaxAge = int(sr.maxAge.Seconds())
	}
	return c
}

// setCookie writes the session cookie onto w.
func (sr *sessionResolver) setCookie(w http.ResponseWriter, id string) {
	if c := sr.cookie(id); c != nil {
		http.SetCookie(w, c)
	}
}

func (sr *sessionResolver) valid(id string) bool {
	return sr.validate.Var(id, sessionIDRule) == nil
}
