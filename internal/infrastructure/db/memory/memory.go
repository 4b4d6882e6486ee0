// Package memory provides process-local implementations of the storage
// ports for local development and tests. Data is lost on restart.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

var (
	_ ports.JobRepository = (*JobRepository)(nil)
	_ ports.QuotaStore    = (*QuotaStore)(nil)
)

// JobRepository implements ports.JobRepository in memory. List returns
// records in insertion order.
type JobRepository struct {
	mu    sync.RWMutex
	seq   int
	order []string
	byID  map[string]domain.Job
}

func NewJobRepository() *JobRepository {
	return &JobRepository{byID: make(map[string]domain.Job)}
}

func (r *JobRepository) List(_ context.Context) ([]domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *JobRepository) Create(_ context.Context, j *domain.Job) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *j
	stored.ID = strconv.Itoa(r.seq)
	stored.Views = 0
	r.byID[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return &stored, nil
}

func (r *JobRepository) FindByID(_ context.Context, id string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (r *JobRepository) Update(_ context.Context, id string, p domain.JobPatch) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	j = p.Apply(j)
	r.byID[id] = j
	return &j, nil
}

func (r *JobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(r.byID, id)
	r.removeFromOrder(id)
	return nil
}

func (r *JobRepository) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Views++
	r.byID[id] = j
	return nil
}

func (r *JobRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	kept := r.order[:0]
	for _, id := range r.order {
		if r.byID[id].CreatedAt.Before(cutoff) {
			delete(r.byID, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return n, nil
}

func (r *JobRepository) removeFromOrder(id string) {
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// QuotaStore implements ports.QuotaStore in memory. A single mutex makes
// TryConsume atomic.
type QuotaStore struct {
	mu      sync.Mutex
	records map[string]domain.UrgentQuota
}

func NewQuotaStore() *QuotaStore {
	return &QuotaStore{records: make(map[string]domain.UrgentQuota)}
}

// current returns today's record for email, creating or rolling it over.
// Callers hold s.mu.
func (s *QuotaStore) current(email string, today time.Time) domain.UrgentQuota {
	key := strings.ToLower(email)
	q, ok := s.records[key]
	if !ok {
		q = domain.UrgentQuota{Email: email, LastReset: today}
	}
	q.Rollover(today)
	s.records[key] = q
	return q
}

func (s *QuotaStore) Get(_ context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(email, today), nil
}

func (s *QuotaStore) TryConsume(_ context.Context, email string, today time.Time, base int) (domain.UrgentQuota, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.current(email, today)
	if q.Remaining(base) <= 0 {
		return q, false, nil
	}
	q.Count++
	s.records[strings.ToLower(email)] = q
	return q, true, nil
}

func (s *QuotaStore) IncrementCount(_ context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.current(email, today)
	q.Count++
	s.records[strings.ToLower(email)] = q
	return q, nil
}

func (s *QuotaStore) AddExtraCredit(_ context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.current(email, today)
	q.ExtraCredits++
	s.records[strings.ToLower(email)] = q
	return q, nil
}
