package web

import (
	"log"
	"net/http"
	"os"

	"github.com/goji/httpauth"
	"github.com/gorilla/securecookie"
)

const (
	cookieName  = "headstart"
	cookieValue = "authenticated"
)

type AuthMiddleware struct {
	sc   *securecookie.SecureCookie
	opts httpauth.AuthOptions
	user string
	pass string
}

// NewAuthMiddleware sets up basic auth with credentials from the HEADSTART_USER
// and HEADSTART_PASS environment variables. If they are unset authentication
// is disabled.
func NewAuthMiddleware() AuthMiddleware {
	mw := AuthMiddleware{
		sc:   securecookie.New(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)),
		user: os.Getenv("HEADSTART_USER"),
		pass: os.Getenv("HEADSTART_PASS"),
	}
	mw.opts = httpauth.AuthOptions{Realm: "Restricted", AuthFunc: mw.checkAuth}
	return mw
}

// Middleware uses basic auth to login and sets a session cookie so subsequent
// requests skip the challenge.
func (mw AuthMiddleware) Middleware(next http.Handler) http.Handler {
	if mw.user == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(cookieName); err == nil {
			var value string
			if err = mw.sc.Decode(cookieName, cookie.Value, &value); err == nil && value == cookieValue {
				next.ServeHTTP(w, r)
				return
			}
		}
		httpauth.BasicAuth(mw.opts)(mw.setCookie(next)).ServeHTTP(w, r)
	})
}

func (mw AuthMiddleware) setCookie(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if encoded, err := mw.sc.Encode(cookieName, cookieValue); err == nil {
			cookie := &http.Cookie{Name: cookieName, Value: encoded, Path: "/"}
			http.SetCookie(w, cookie)
		} else {
			log.Println("error encoding cookie:", err)
		}
		h.ServeHTTP(w, r)
	})
}

func (mw AuthMiddleware) checkAuth(user, pass string, r *http.Request) bool {
	return user == mw.user && pass == mw.pass
}
