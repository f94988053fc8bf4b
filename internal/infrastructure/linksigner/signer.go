package linksigner

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "brick-referrals"

var ErrMissingSecret = errors.New("link signing secret is required")

// Claims identify the referral link a token was issued for.
type Claims struct {
	Code       string `json:"code"`
	ReferrerID string `json:"ref"`
	jwt.RegisteredClaims
}

// Signer issues and verifies short-lived HS256 tokens for share links.
type Signer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func New(secret string, ttl time.Duration, baseURL string) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("link token ttl must be positive, got %s", ttl)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid share base url: %w", err)
	}
	return &Signer{secret: []byte(secret), ttl: ttl, baseURL: baseURL, now: time.Now}, nil
}

// WithClock replaces the time source, for tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

func (s *Signer) Sign(code, referrerID string) (string, time.Time, error) {
	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := Claims{
		Code:       code,
		ReferrerID: referrerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign link token: %w", err)
	}
	return token, expires, nil
}

func (s *Signer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Code == "" {
		return nil, errors.New("link token has no code")
	}
	return claims, nil
}

// ShareURL returns the public join URL carrying a freshly signed token.
func (s *Signer) ShareURL(code, referrerID string) (string, time.Time, error) {
	token, expires, err := s.Sign(code, referrerID)
	if err != nil {
		return "", time.Time{}, err
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", time.Time{}, err
	}
	q := u.Query()
	q.Set("ref", token)
	u.RawQuery = q.Encode()
	return u.String(), expires, nil
}
