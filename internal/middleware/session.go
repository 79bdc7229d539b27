package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookie = "sf_session"
	sessionKey    = "sessionId"
)

type SessionOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Session gives every visitor a shopper session id carried in a signed
// cookie. A missing, expired or tampered cookie starts a new session.
func Session(opts SessionOptions, log *zap.Logger) gin.HandlerFunc {
	secret := []byte(opts.Secret)

	return func(c *gin.Context) {
		if raw, err := c.Cookie(SessionCookie); err == nil {
			if sid, ok := parseSessionToken(raw, secret); ok {
				c.Set(sessionKey, sid)
				c.Next()
				return
			}
			log.Debug("[SESSION] invalid cookie, starting a new session")
		}

		sid := uuid.NewString()
		token, err := issueSessionToken(sid, secret, opts.TTL)
		if err != nil {
			log.Error("[SESSION] token generation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, token, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
		c.Set(sessionKey, sid)
		c.Next()
	}
}

// SessionID returns the session id set by Session, or "".
func SessionID(c *gin.Context) string {
	v, ok := c.Get(sessionKey)
	if !ok {
		return ""
	}
	sid, _ := v.(string)
	return sid
}

func issueSessionToken(sid string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseSessionToken(raw string, secret []byte) (string, bool) {
	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	sid, ok := claims["sid"].(string)
	if !ok || uuid.Validate(sid) != nil {
		return "", false
	}
	return sid, true
}
