package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/core/domain"
)

const defaultSessionTTL = time.Hour

// AdminSessionService issues HS256 tokens with role=admin to callers that
// present the admin key. With an empty signing secret every request is
// refused.
type AdminSessionService struct {
	guard  *OwnershipGuard
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewAdminSessionService(guard *OwnershipGuard, secret string, ttl time.Duration, logger zerolog.Logger) *AdminSessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if guard == nil {
		guard = NewOwnershipGuard(nil)
	}
	return &AdminSessionService{
		guard:  guard,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (s *AdminSessionService) Issue(_ context.Context, adminKey string) (domain.AdminSession, error) {
	if len(s.secret) == 0 || !s.guard.IsAdmin(adminKey) {
		s.logger.Warn().Msg("admin session refused")
		return domain.AdminSession{}, domain.ErrUnauthorized
	}

	now := s.now().UTC()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": domain.RoleAdmin,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return domain.AdminSession{}, err
	}

	s.logger.Info().Time("expires_at", exp).Msg("admin session issued")
	return domain.AdminSession{Token: signed, ExpiresAt: exp}, nil
}
