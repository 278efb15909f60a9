package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

// Roles carried in bearer tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Auth modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// localSubject identifies callers when authentication is disabled and no X-Subject is sent.
const localSubject = "local"

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	Mode   string
	Secret string
	Issuer string
}

// Claims are the token claims: the subject is the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	Subject string
	Role    string
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IssueToken signs an HS256 token for subject.
func IssueToken(secret, issuer, subject, role string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: signing secret is empty", perrors.ErrInvalidInput)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", perrors.ErrInvalidInput)
	}
	if role != RoleUser && role != RoleAdmin {
		return "", fmt.Errorf("%w: unknown role %q", perrors.ErrInvalidInput, role)
	}
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns the identity it carries.
func ParseToken(secret, issuer, tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", perrors.ErrAuthFailure, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: invalid token claims", perrors.ErrAuthFailure)
	}
	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Identity{Subject: claims.Subject, Role: role}, nil
}

// NewAuthMiddleware authenticates every non-probe request and stores the Identity in
// c.Locals("identity"). In "none" mode the caller is an admin named by X-Subject.
func NewAuthMiddleware(cfg AuthConfig, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "auth").Logger()

	return func(c *fiber.Ctx) error {
		if isProbe(c.Path()) {
			return c.Next()
		}

		if strings.EqualFold(cfg.Mode, AuthModeNone) {
			subject := strings.TrimSpace(c.Get("X-Subject"))
			if subject == "" {
				subject = localSubject
			}
			c.Locals("identity", Identity{Subject: subject, Role: RoleAdmin})
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization must use the Bearer scheme")
		}

		id, err := ParseToken(cfg.Secret, cfg.Issuer, strings.TrimSpace(token))
		if err != nil {
			log.Debug().Err(err).Str("ip", c.IP()).Msg("rejected token")
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_token", "Unauthorized",
				"Bearer token is invalid or expired")
		}
		c.Locals("identity", id)
		return c.Next()
	}
}

// requireRole rejects callers without role.
func requireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity(c).Role != role {
			return problemResponse(c, fiber.StatusForbidden,
				"insufficient_role", "Forbidden",
				"This endpoint requires the "+role+" role")
		}
		return c.Next()
	}
}

func identity(c *fiber.Ctx) Identity {
	id, _ := c.Locals("identity").(Identity)
	return id
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}
