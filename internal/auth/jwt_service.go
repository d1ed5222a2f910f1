package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

// DefaultAccessTokenTTL is used when minting tokens without an explicit TTL.
const DefaultAccessTokenTTL = time.Hour

var (
	// ErrInvalidToken covers malformed, badly signed or mis-addressed tokens.
	ErrInvalidToken = errors.New("jwt: invalid token")
	// ErrTokenExpired reports a token past its expiry, including leeway.
	ErrTokenExpired = errors.New("jwt: token expired")
)

// JWTConfig bundles the settings for verifying upstream identity tokens.
type JWTConfig struct {
	Secret         string
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
	Leeway         time.Duration
	Clock          func() time.Time
}

// Claims are the claims the upstream identity provider places in access tokens.
type Claims struct {
	TenantID string `json:"tid"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenInput holds the parameters used when minting a token.
type AccessTokenInput struct {
	Subject  string
	TenantID string
	Role     string
	Email    string
	Name     string
}

// JWTService verifies HS256 tokens. It can also mint them for local tooling and tests.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		leeway:   cfg.Leeway,
		now:      now,
	}, nil
}

// GenerateAccessToken issues a signed JWT for the supplied identity.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return "", errors.New("jwt: subject is required")
	}
	if strings.TrimSpace(input.TenantID) == "" {
		return "", errors.New("jwt: tenant id is required")
	}

	now := s.now()
	claims := &Claims{
		TenantID: input.TenantID,
		Role:     NormalizeRole(input.Role),
		Email:    input.Email,
		Name:     input.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.Subject,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and validates a signed JWT, returning the claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: missing subject or tenant", ErrInvalidToken)
	}
	claims.Role = NormalizeRole(claims.Role)
	return &claims, nil
}

// NormalizeRole maps unknown or empty roles to the least privileged role.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleAdmin:
		return models.RoleAdmin
	case models.RoleManager:
		return models.RoleManager
	default:
		return models.RoleViewer
	}
}

var roleRank = map[string]int{
	models.RoleViewer:  1,
	models.RoleManager: 2,
	models.RoleAdmin:   3,
}

// RoleAtLeast reports whether role grants at least the privileges of required.
func RoleAtLeast(role, required string) bool {
	return roleRank[NormalizeRole(role)] >= roleRank[NormalizeRole(required)]
}
