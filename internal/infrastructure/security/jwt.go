package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/pkg/config"
)

// sessionClaims is the wire form of a session token.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec signs session tokens with HS256. Tokens are stateless: there is no
// server-side record of issued tokens, so a token stays valid until it expires
// even after the client logs out. Changing the secret invalidates every
// outstanding token.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTCodec builds a codec from the auth configuration.
func NewJWTCodec(cfg config.Auth) *JWTCodec {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &JWTCodec{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Issue signs a token for identity carrying its id and role.
func (c *JWTCodec) Issue(identity *domain.Identity) (string, error) {
	if identity == nil || identity.ID == "" {
		return "", errors.New("issue token: identity without id")
	}
	now := c.now()
	claims := sessionClaims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (c *JWTCodec) Verify(token string) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, domain.ErrTokenInvalidSignature
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}

	role, ok := domain.ParseRole(claims.Role)
	if claims.Subject == "" || !ok {
		return nil, fmt.Errorf("%w: missing subject or role", domain.ErrTokenMalformed)
	}

	out := &domain.Claims{SubjectID: claims.Subject, Role: role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
