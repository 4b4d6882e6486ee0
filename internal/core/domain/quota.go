package domain

import "time"

// DefaultDailyUrgentAllowance is the number of free urgent posts per identity per day.
const DefaultDailyUrgentAllowance = 2

// UrgentQuota is the per-identity, per-day urgent post throttle state.
type UrgentQuota struct {
	Email        string
	Count        int
	ExtraCredits int
	LastReset    time.Time
}

// QuotaStatus is the caller-facing view of an UrgentQuota.
type QuotaStatus struct {
	Remaining    int `json:"remaining"`
	TotalAllowed int `json:"totalAllowed"`
	Count        int `json:"count"`
}

// Rollover resets the record when its last reset predates today.
// It reports whether a reset happened.
func (q *UrgentQuota) Rollover(today time.Time) bool {
	if !q.LastReset.Before(today) {
		return false
	}
	q.Count = 0
	q.ExtraCredits = 0
	q.LastReset = today
	return true
}

// Allowance is base + extra credits.
func (q UrgentQuota) Allowance(base int) int {
	return base + q.ExtraCredits
}

// Remaining never goes below zero.
func (q UrgentQuota) Remaining(base int) int {
	return max(0, q.Allowance(base)-q.Count)
}

func (q UrgentQuota) Status(base int) QuotaStatus {
	return QuotaStatus{
		Remaining:    q.Remaining(base),
		TotalAllowed: q.Allowance(base),
		Count:        q.Count,
	}
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
