package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// SubjectKind identifies which credential store a token subject lives in
type SubjectKind string

const (
	SubjectUser         SubjectKind = "user"
	SubjectProfessional SubjectKind = "professional"
	SubjectClinic       SubjectKind = "clinic"
)

func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectUser, SubjectProfessional, SubjectClinic:
		return true
	}
	return false
}

type tokenType string

const (
	tokenAccess  tokenType = "access"
	tokenRefresh tokenType = "refresh"
)

// Subject is the identity a token pair is bound to
type Subject struct {
	ID   uuid.UUID
	Kind SubjectKind
}

// Claims carried by both access and refresh tokens
type Claims struct {
	jwt.RegisteredClaims
	Kind SubjectKind `json:"kind"`
	Type tokenType   `json:"typ"`
}

// Subject returns the subject the claims were issued for
func (c *Claims) Subject() (Subject, error) {
	id, err := uuid.Parse(c.RegisteredClaims.Subject)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	if !c.Kind.Valid() {
		return Subject{}, fmt.Errorf("%w: unknown subject kind", ErrInvalidToken)
	}
	return Subject{ID: id, Kind: c.Kind}, nil
}

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Config holds the issuer settings. Secret and RefreshSecret must differ.
type Config struct {
	Secret        string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// JWTService issues and verifies tokens
type JWTService interface {
	Issue(subject Subject) (*TokenPair, error)
	VerifyAccess(token string) (*Claims, error)
	VerifyRefresh(token string) (*Claims, error)
}

// TokenIssuer signs access tokens and refresh tokens with separate HMAC keys
type TokenIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewTokenIssuer(cfg Config) (*TokenIssuer, error) {
	if cfg.Secret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt secrets must be set")
	}
	if cfg.Secret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{
		accessKey:  []byte(cfg.Secret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source, used by tests
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

func (t *TokenIssuer) Issue(subject Subject) (*TokenPair, error) {
	if subject.ID == uuid.Nil || !subject.Kind.Valid() {
		return nil, errors.New("invalid token subject")
	}

	now := t.now()
	accessExp := now.Add(t.accessTTL)
	refreshExp := now.Add(t.refreshTTL)

	access, err := t.sign(subject, tokenAccess, now, accessExp, t.accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := t.sign(subject, tokenRefresh, now, refreshExp, t.refreshKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (t *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return t.verify(token, tokenAccess, t.accessKey)
}

func (t *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return t.verify(token, tokenRefresh, t.refreshKey)
}

func (t *TokenIssuer) sign(subject Subject, typ tokenType, now, exp time.Time, key []byte) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Kind: subject.Kind,
		Type: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (t *TokenIssuer) verify(tokenString string, typ tokenType, key []byte) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, typ)
	}
	return claims, nil
}
