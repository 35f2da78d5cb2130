package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/osrsbingo/internal/dependencies/clock"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// adminSubject is the subject of every admin token
const adminSubject = "admin"

// Token is a signed admin session token
type Token struct {
	Token     string
	ExpiresAt time.Time
}

// Claims are the JWT claims of an admin token
type Claims struct {
	jwt.RegisteredClaims
}

// Config holds configuration for the auth service
type Config struct {
	// AdminPassword unlocks admin mutations. Empty disables admin login.
	AdminPassword string
	// IngestAPIKey guards the plugin ingest routes. Empty disables the check.
	IngestAPIKey string
	// TokenSecret signs admin tokens
	TokenSecret string
	TokenTTL    time.Duration
	// HashCost is the bcrypt cost used for the admin password
	HashCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 12 * time.Hour,
		HashCost: bcrypt.DefaultCost,
	}
}

// Service handles admin login and ingest key checks
type Service struct {
	clock clock.Clock

	passwordHash []byte
	ingestKey    []byte
	secret       []byte
	tokenTTL     time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry
}

// New creates a new AuthService
func New(clock clock.Clock, cfg Config) (*Service, error) {
	if cfg.TokenSecret == "" {
		return nil, errors.New("auth: token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = DefaultConfig().HashCost
	}

	s := &Service{
		clock:     clock,
		ingestKey: []byte(cfg.IngestAPIKey),
		secret:    []byte(cfg.TokenSecret),
		tokenTTL:  cfg.TokenTTL,
		revoked:   make(map[string]time.Time),
	}

	if cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cfg.HashCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.passwordHash = hash
	}
	return s, nil
}

// Login checks the admin password and issues a signed token
func (s *Service) Login(password string) (*Token, error) {
	if s.passwordHash == nil || password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateToken checks a token's signature, expiry and subject
func (s *Service) ValidateToken(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithSubject(adminSubject),
	)
	if err != nil || claims.ExpiresAt == nil {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Logout revokes a token until it would have expired anyway
func (s *Service) Logout(token string) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()
}

// CleanRevoked forgets revoked tokens that have expired (call periodically)
func (s *Service) CleanRevoked() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, id)
		}
	}
}

// IngestKeyRequired reports whether ingest routes need an API key
func (s *Service) IngestKeyRequired() bool {
	return len(s.ingestKey) > 0
}

// CheckIngestKey compares key against the configured ingest key in
// constant time. With no key configured every request is accepted.
func (s *Service) CheckIngestKey(key string) bool {
	if !s.IngestKeyRequired() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(key), s.ingestKey) == 1
}

// Interface for dependency injection
type ServiceInterface interface {
	Login(password string) (*Token, error)
	ValidateToken(token string) (*Claims, error)
	Logout(token string)
	IngestKeyRequired() bool
	CheckIngestKey(key string) bool
}

var _ ServiceInterface = (*Service)(nil)
