package ports

import (
	"context"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// QuotaStore persists UrgentQuota records. Every method first rolls the
// record over to today (creating it when missing) in the same atomic step
// as the operation itself.
type QuotaStore interface {
	Get(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error)
	// TryConsume increments Count only if Count < base+ExtraCredits. The
	// boolean reports whether a credit was consumed.
	TryConsume(ctx context.Context, email string, today time.Time, base int) (domain.UrgentQuota, bool, error)
	IncrementCount(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error)
	AddExtraCredit(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error)
}
