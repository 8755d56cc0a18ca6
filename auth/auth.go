// Package auth issues and validates the stateless session tokens used by
// the API, and owns password hashing for the users store.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	// Secret is the HS256 signing key for session tokens.
	Secret string
	// Expiry is the session token lifetime. Defaults to 24h.
	Expiry time.Duration
}

type Auth struct {
	secret []byte
	expiry time.Duration
}

var (
	ErrNoSecret     = errors.New("session secret not set")
	ErrInvalidToken = errors.New("invalid session token")
)

func New(o *Options) (*Auth, error) {
	if o.Secret == "" {
		return nil, ErrNoSecret
	}
	expiry := o.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Auth{
		secret: []byte(o.Secret),
		expiry: expiry,
	}, nil
}

// Claims is the session token payload. Email is the authenticated identity;
// everything else about the user is looked up in the users store per request.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed session token for an email identity.
func (a *Auth) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken verifies a session token and returns the email identity.
func (a *Auth) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return a.secret, nil
		})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a bcrypt hash against a cleartext password.
func CheckPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
