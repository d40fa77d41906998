// Package flash carries one-shot notices across a redirect in a signed cookie.
package flash

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "flash"

// TokenDuration bounds how long an unread notice stays valid.
const TokenDuration = 5 * time.Minute

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type claims struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"msg"`
	jwt.RegisteredClaims
}

type Flasher struct {
	secret []byte
}

func New(secret string) *Flasher {
	return &Flasher{secret: []byte(secret)}
}

// Cookie returns a cookie holding the signed notice.
func (f *Flasher) Cookie(n Notice) (*http.Cookie, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind:    n.Kind,
		Message: n.Message,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenDuration)),
		},
	})
	signed, err := token.SignedString(f.secret)
	if err != nil {
		return nil, fmt.Errorf("sign flash: %w", err)
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(TokenDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Set stores the notice on the response.
func (f *Flasher) Set(w http.ResponseWriter, n Notice) error {
	c, err := f.Cookie(n)
	if err != nil {
		return err
	}
	http.SetCookie(w, c)
	return nil
}

// Read extracts the notice from a raw Cookie header. Missing, expired or
// tampered notices yield nil.
func (f *Flasher) Read(cookieHeader string) *Notice {
	if cookieHeader == "" {
		return nil
	}
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return nil
	}
	for _, c := range cookies {
		if c.Name != CookieName {
			continue
		}
		var cl claims
		_, err := jwt.ParseWithClaims(c.Value, &cl, func(t *jwt.Token) (interface{}, error) {
			return f.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil
		}
		return &Notice{Kind: cl.Kind, Message: cl.Message}
	}
	return nil
}

// Clear returns a cookie that deletes the notice.
func Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
