package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated is returned for missing or invalid bearer tokens
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller lacks a permission
	ErrForbidden = errors.New("forbidden")
)

// Wildcard grants every permission
const Wildcard = "*"

// Claims are the JWT claims of a portal user
type Claims struct {
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Config configures token validation and role grants
type Config struct {
	Secret         string              `json:"secret"`
	Issuer         string              `json:"issuer"`
	TokenTTL       time.Duration       `json:"token_ttl"`
	Roles          map[string][]string `json:"roles"`
	AllowDevTokens bool                `json:"allow_dev_tokens"`
}

// DefaultRoles maps the built-in roles to their permissions
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"admin":       {Wildcard},
		"operations":  {"settlements.*", "auctions.*"},
		"static_data": {"static_data.*"},
		"viewer":      {"settlements.view", "auctions.view", "static_data.view"},
	}
}

// Authorizer validates bearer tokens and answers permission checks
type Authorizer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	roles  map[string][]string
	now    func() time.Time
	logger *zap.Logger
}

// NewAuthorizer creates an authorizer. An empty secret is rejected.
func NewAuthorizer(cfg Config, logger *zap.Logger) (*Authorizer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	if cfg.Roles == nil {
		cfg.Roles = DefaultRoles()
	}
	return &Authorizer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		roles:  cfg.Roles,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Issue signs a token for subject with the given roles
func (a *Authorizer) Issue(subject string, roles []string) (string, error) {
	now := a.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a signed token and returns its claims
func (a *Authorizer) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims, nil
}

// Can reports whether claims grant permission. An empty permission is
// always granted; nil claims are granted nothing else.
func (a *Authorizer) Can(claims *Claims, permission string) bool {
	if permission == "" {
		return true
	}
	if claims == nil {
		return false
	}
	if slices.ContainsFunc(claims.Permissions, func(g string) bool { return grants(g, permission) }) {
		return true
	}
	for _, role := range claims.Roles {
		if slices.ContainsFunc(a.roles[role], func(g string) bool { return grants(g, permission) }) {
			return true
		}
	}
	return false
}

// grants matches a granted permission against a requested one. A grant
// ending in ".*" covers every permission under that prefix.
func grants(granted, requested string) bool {
	if granted == Wildcard || granted == requested {
		return true
	}
	if prefix, ok := strings.CutSuffix(granted, ".*"); ok {
		return strings.HasPrefix(requested, prefix+".")
	}
	return false
}
