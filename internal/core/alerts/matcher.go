// Package alerts matches posted jobs against a seeker's subscribed role
// keywords. Matching is a case-insensitive substring test, so "Sales" also
// matches "Wholesales Assistant".
package alerts

import (
	"strings"
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// MatchingJobs returns the jobs whose role contains any subscribed keyword.
// Blank keywords are ignored.
func MatchingJobs(jobs []domain.Job, roles []string) []domain.Job {
	keywords := normalize(roles)
	if len(keywords) == 0 {
		return nil
	}

	var out []domain.Job
	for _, j := range jobs {
		if matches(j.JobRole, keywords) {
			out = append(out, j)
		}
	}
	return out
}

// CountNewMatches counts matches posted strictly after lastCheck.
func CountNewMatches(jobs []domain.Job, roles []string, lastCheck time.Time) int {
	n := 0
	for _, j := range MatchingJobs(jobs, roles) {
		if j.CreatedAt.After(lastCheck) {
			n++
		}
	}
	return n
}

func matches(role string, keywords []string) bool {
	role = strings.ToLower(role)
	for _, k := range keywords {
		if strings.Contains(role, k) {
			return true
		}
	}
	return false
}

func normalize(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
