// Package cookies управляет авторизационной cookie "jwt".
// Клиентское приложение держит токен в httpOnly cookie, поэтому выставление
// и сброс собраны здесь, чтобы register/login/logout не расходились.
package cookies

import (
	"net/http"
	"time"
)

// AuthCookieName — имя cookie с JWT.
const AuthCookieName = "jwt"

// SetAuth выставляет авторизационную cookie с токеном.
// secure включается в production, где API живёт за TLS.
func SetAuth(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuth сбрасывает авторизационную cookie.
func ClearAuth(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
