package ports

import (
	"context"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// AdminSessionService trades the admin key for a signed session token.
type AdminSessionService interface {
	Issue(ctx context.Context, adminKey string) (domain.AdminSession, error)
}
