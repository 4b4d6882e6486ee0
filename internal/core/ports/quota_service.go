package ports

import (
	"context"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// QuotaService tracks the daily urgent post allowance per identity.
type QuotaService interface {
	GetStatus(ctx context.Context, email string) (domain.QuotaStatus, error)
	// TryConsume atomically checks the allowance and uses one credit.
	// It returns domain.ErrQuotaExceeded when nothing is left.
	TryConsume(ctx context.Context, email string) (domain.QuotaStatus, error)
	RecordUrgentPost(ctx context.Context, email string) (domain.QuotaStatus, error)
	GrantExtraCredit(ctx context.Context, email string) (domain.QuotaStatus, error)
}
