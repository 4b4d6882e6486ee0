// Package listing decides which stored jobs are publicly visible, in what
// order, and whether their urgent promotion is still active. Expiry is a
// read-time filter only; nothing here removes records from storage.
package listing

import (
	"slices"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// DefaultTTL is how long a job stays in public listings after creation.
const DefaultTTL = 15 * 24 * time.Hour

// Engine applies the visibility window. The zero value uses DefaultTTL.
type Engine struct {
	TTL time.Duration
}

func (e Engine) ttl() time.Duration {
	if e.TTL <= 0 {
		return DefaultTTL
	}
	return e.TTL
}

// Visible reports whether now - createdAt < TTL.
func (e Engine) Visible(job domain.Job, now time.Time) bool {
	return now.Sub(job.CreatedAt) < e.ttl()
}

// Active returns the visible jobs, newest first. Jobs with equal creation
// times keep their input order.
func (e Engine) Active(jobs []domain.Job, now time.Time) []domain.Job {
	out := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if e.Visible(j, now) {
			out = append(out, j)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders jobs by CreatedAt descending, stable on ties.
func SortNewestFirst(jobs []domain.Job) {
	slices.SortStableFunc(jobs, func(a, b domain.Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// UrgentNow reports whether the urgent flag is set and has not lapsed.
// A job without an UrgentUntil stays urgent for as long as the flag is set.
func UrgentNow(job domain.Job, now time.Time) bool {
	if !job.IsUrgent {
		return false
	}
	return job.UrgentUntil == nil || job.UrgentUntil.After(now)
}
