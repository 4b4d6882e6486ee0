package domain

import (
	"strings"
	"time"
)

// Job is a single employer-submitted posting.
type Job struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	PhoneNumber string     `json:"phoneNumber"`
	Email       string     `json:"email"`
	City        string     `json:"city"`
	JobRole     string     `json:"jobRole"`
	Description string     `json:"description"`
	Company     string     `json:"company,omitempty"`
	IsUrgent    bool       `json:"isUrgent"`
	UrgentUntil *time.Time `json:"urgentUntil,omitempty"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// JobPatch lists the mutable fields of a job. Nil means "leave unchanged".
type JobPatch struct {
	FullName    *string
	PhoneNumber *string
	City        *string
	JobRole     *string
	Description *string
	IsUrgent    *bool
	// UrgentUntil is only applied when SetUrgentUntil is true so that a
	// patch can clear the timestamp explicitly.
	UrgentUntil    *time.Time
	SetUrgentUntil bool
}

// Empty reports whether the patch changes nothing.
func (p JobPatch) Empty() bool {
	return p.FullName == nil && p.PhoneNumber == nil && p.City == nil &&
		p.JobRole == nil && p.Description == nil && p.IsUrgent == nil && !p.SetUrgentUntil
}

// Apply returns a copy of j with the patch applied.
func (p JobPatch) Apply(j Job) Job {
	if p.FullName != nil {
		j.FullName = *p.FullName
	}
	if p.PhoneNumber != nil {
		j.PhoneNumber = *p.PhoneNumber
	}
	if p.City != nil {
		j.City = *p.City
	}
	if p.JobRole != nil {
		j.JobRole = *p.JobRole
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.IsUrgent != nil {
		j.IsUrgent = *p.IsUrgent
	}
	if p.SetUrgentUntil {
		j.UrgentUntil = p.UrgentUntil
	}
	return j
}

// NormalizeEmail is the canonical form used for storage and ownership checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
