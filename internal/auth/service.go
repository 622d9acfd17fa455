package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// DefaultTTL is the lifetime of issued session tokens.
const DefaultTTL = 24 * time.Hour

// Service issues and validates the session tokens that identify editors of a
// document. There is no user table: the token carries the user id and display
// name.
type Service struct {
	jwtSecret []byte
	now       func() time.Time
}

func NewService(jwtSecret string) (*Service, error) {
	if jwtSecret == "" {
		return nil, ErrEmptySecret
	}
	return &Service{jwtSecret: []byte(jwtSecret), now: time.Now}, nil
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for userID. An empty userID gets a fresh user id.
func (s *Service) IssueToken(userID, displayName string, ttl time.Duration) (string, *User, error) {
	if userID == "" {
		userID = typeid.NewUserID()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.now()
	c := claims{
		Name: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, &User{ID: userID, DisplayName: displayName}, nil
}

func (s *Service) ValidateToken(tokenString string) (*User, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: c.Subject, DisplayName: c.Name}, nil
}
