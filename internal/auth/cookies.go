package auth

import (
	"net/http"
)

// AccessTokenCookie is the cookie name carrying the session token.
const AccessTokenCookie = "access_token"

// SetAccessTokenCookie attaches the token as a session cookie. No Max-Age is
// set on purpose: the signed expiry inside the token is the real deadline.
func SetAccessTokenCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAccessTokenCookie instructs the browser to drop its copy of the
// token. This is the only logout action available; the token itself stays
// valid until it expires.
func ClearAccessTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// AccessTokenFromRequest reads the carrier cookie value if present.
func AccessTokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
