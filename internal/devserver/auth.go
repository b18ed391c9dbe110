package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/learnpath/internal/course"
)

const userCtxKey = "devserver.user"

var signingMethod = jwt.SigningMethodHS256

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = errors.New("token expired")

type account struct {
	ID       string
	Email    string
	FullName string
	Role     string
	hash     []byte
}

func (a *account) identity() course.Identity {
	return course.Identity{ID: course.ID(a.ID), Email: a.Email, FullName: a.FullName, Role: a.Role}
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// issueToken signs an access token whose subject is the account id.
func (s *Server) issueToken(a *account) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(signingMethod, jwt.RegisteredClaims{
		Subject:   a.ID,
		Issuer:    "learnpath-devserver",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parseToken verifies a token and returns its subject.
func (s *Server) parseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != signingMethod {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("parse token: %w", err)
	}
	return claims.Subject, nil
}

// authMiddleware resolves the bearer token to an account.
func (s *Server) authMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		abortDetail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	sub, err := s.parseToken(token)
	if err != nil {
		s.log.Info("rejected token", "error", err)
		if errors.Is(err, ErrTokenExpired) {
			abortDetail(c, http.StatusUnauthorized, "Token expired")
			return
		}
		abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	s.mu.Lock()
	a, ok := s.byID[sub]
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	c.Set(userCtxKey, a)
	c.Next()
}

func currentAccount(c *gin.Context) *account {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	a, _ := v.(*account)
	return a
}

func abortDetail(c *gin.Context, status int, detail any) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// missingParam mirrors the validation error body of the course service.
func missingParam(c *gin.Context, name string) {
	abortDetail(c, http.StatusUnprocessableEntity, []gin.H{{
		"loc":  []string{"query", name},
		"msg":  "field required",
		"type": "value_error.missing",
	}})
}

func tokenTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
