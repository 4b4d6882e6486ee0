package handler

import (
	"time"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/listing"
)

// toJobResponse renders timestamps the client compares numerically
// (postedAt, urgentUntil) as unix milliseconds.
func toJobResponse(j domain.Job, now time.Time) jobResponse {
	var until *int64
	if j.UrgentUntil != nil {
		ms := j.UrgentUntil.UnixMilli()
		until = &ms
	}
	return jobResponse{
		ID:          j.ID,
		FullName:    j.FullName,
		PhoneNumber: j.PhoneNumber,
		Email:       j.Email,
		City:        j.City,
		JobRole:     j.JobRole,
		Description: j.Description,
		Company:     j.Company,
		IsUrgent:    j.IsUrgent,
		IsUrgentNow: listing.UrgentNow(j, now),
		UrgentUntil: until,
		Views:       j.Views,
		PostedAt:    j.CreatedAt.UnixMilli(),
		CreatedAt:   j.CreatedAt,
	}
}

// toJobResponses never returns nil so empty lists encode as [].
func toJobResponses(jobs []domain.Job, now time.Time) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j, now))
	}
	return out
}
