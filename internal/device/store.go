// Package device keeps per-device preferences: which jobs were viewed or
// saved and which roles the user follows for alerts. Nothing here is synced
// to the server or validated against it.
package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// StorageKey is the single key the preferences blob lives under.
const StorageKey = "saudi_job_local_device"

// Preferences is the stored blob.
type Preferences struct {
	ViewedJobIDs []string `json:"viewedJobIds"`
	SavedJobIDs  []string `json:"savedJobIds"`
	AlertRoles   []string `json:"alertRoles"`
	// LastAlertCheck is unix milliseconds.
	LastAlertCheck int64 `json:"lastAlertCheck"`
}

// LastAlertCheckTime returns LastAlertCheck as a time.
func (p Preferences) LastAlertCheckTime() time.Time {
	return time.UnixMilli(p.LastAlertCheck)
}

// Defaults returns empty preferences with LastAlertCheck set to now.
func Defaults(now time.Time) Preferences {
	return Preferences{
		ViewedJobIDs:   []string{},
		SavedJobIDs:    []string{},
		AlertRoles:     []string{},
		LastAlertCheck: now.UnixMilli(),
	}
}

// Store reads and writes Preferences through a Backend. Mutations are
// serialized; the last write wins.
type Store struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Load returns the stored preferences merged over the defaults. A missing or
// corrupt blob yields the defaults.
func (s *Store) Load() (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Preferences, error) {
	prefs := Defaults(s.now())

	raw, err := s.backend.Get(StorageKey)
	if errors.Is(err, ErrNotFound) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("read preferences: %w", err)
	}

	var stored struct {
		ViewedJobIDs   []string `json:"viewedJobIds"`
		SavedJobIDs    []string `json:"savedJobIds"`
		AlertRoles     []string `json:"alertRoles"`
		LastAlertCheck *int64   `json:"lastAlertCheck"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return prefs, nil
	}
	if stored.ViewedJobIDs != nil {
		prefs.ViewedJobIDs = dedupe(stored.ViewedJobIDs)
	}
	if stored.SavedJobIDs != nil {
		prefs.SavedJobIDs = dedupe(stored.SavedJobIDs)
	}
	if stored.AlertRoles != nil {
		prefs.AlertRoles = stored.AlertRoles
	}
	if stored.LastAlertCheck != nil {
		prefs.LastAlertCheck = *stored.LastAlertCheck
	}
	return prefs, nil
}

func (s *Store) save(p Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.backend.Set(StorageKey, raw); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(*Preferences)) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load()
	if err != nil {
		return p, err
	}
	fn(&p)
	return p, s.save(p)
}

// MarkViewed records id as viewed and reports whether this was the first
// view on this device.
func (s *Store) MarkViewed(id string) (bool, error) {
	var first bool
	_, err := s.update(func(p *Preferences) {
		if !slices.Contains(p.ViewedJobIDs, id) {
			p.ViewedJobIDs = append(p.ViewedJobIDs, id)
			first = true
		}
	})
	return first, err
}

// ToggleSaved flips the saved state of id and returns the new state.
func (s *Store) ToggleSaved(id string) (bool, error) {
	var saved bool
	_, err := s.update(func(p *Preferences) {
		if i := slices.Index(p.SavedJobIDs, id); i >= 0 {
			p.SavedJobIDs = slices.Delete(p.SavedJobIDs, i, i+1)
			return
		}
		p.SavedJobIDs = append(p.SavedJobIDs, id)
		saved = true
	})
	return saved, err
}

func (s *Store) IsSaved(id string) (bool, error) {
	p, err := s.Load()
	if err != nil {
		return false, err
	}
	return slices.Contains(p.SavedJobIDs, id), nil
}

// SetAlertRoles replaces the followed roles. Blank entries are dropped and
// the remaining order is kept.
func (s *Store) SetAlertRoles(roles []string) error {
	clean := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	_, err := s.update(func(p *Preferences) { p.AlertRoles = clean })
	return err
}

// MarkAlertsChecked moves the alert watermark to now.
func (s *Store) MarkAlertsChecked(now time.Time) error {
	_, err := s.update(func(p *Preferences) { p.LastAlertCheck = now.UnixMilli() })
	return err
}

// Clear removes the stored blob; the next Load returns fresh defaults.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(StorageKey)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
