// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"time"
)

// Timestamp layouts used in ExportMetadata.
const (
	GeneratedAtLayout = time.RFC3339
	LastUpdateLayout  = "2006-01-02 15:04:05"
)

// ErrNotFound reports that no record matches a lookup.
var ErrNotFound = errors.New("participant not found")

// ParticipantRecord is one row of contest standings. Records are never
// modified after decoding; every cycle produces a fresh set.
type ParticipantRecord struct {
	Rank      int
	HasRank   bool // false when the upstream row carried no rank
	Hacker    string
	Score     float64
	TimeTaken float64 // seconds
	Country   string
	School    string
	Avatar    string
}

// ExportBatch is the ordered set of records collected across pages.
type ExportBatch []ParticipantRecord

// Len returns the number of records in the batch.
func (b ExportBatch) Len() int { return len(b) }

// Empty reports whether the batch holds no records.
func (b ExportBatch) Empty() bool { return len(b) == 0 }

// TopScore returns the score of the first record, assumed to be the leader.
func (b ExportBatch) TopScore() float64 {
	if len(b) == 0 {
		return 0
	}
	return b[0].Score
}

// Head returns at most n leading records.
func (b ExportBatch) Head(n int) ExportBatch {
	if n < 0 {
		n = 0
	}
	if n > len(b) {
		n = len(b)
	}
	return b[:n:n]
}

// ExportMetadata summarises an export for the JSON sidecar.
type ExportMetadata struct {
	TotalParticipants int     `json:"total_participants"`
	GeneratedAt       string  `json:"generated_at"`
	TopScore          float64 `json:"top_score"`
	LastUpdate        string  `json:"last_update"`
	Contest           string  `json:"contest,omitempty"`
}

// NewMetadata derives the sidecar summary for batch at time now.
func NewMetadata(batch ExportBatch, contest string, now time.Time) ExportMetadata {
	return ExportMetadata{
		TotalParticipants: batch.Len(),
		GeneratedAt:       now.Format(GeneratedAtLayout),
		TopScore:          batch.TopScore(),
		LastUpdate:        now.Format(LastUpdateLayout),
		Contest:           contest,
	}
}

// Find returns the first record for hacker. Names are compared exactly.
func (b ExportBatch) Find(hacker string) (ParticipantRecord, bool) {
	for _, rec := range b {
		if rec.Hacker == hacker {
			return rec, true
		}
	}
	return ParticipantRecord{}, false
}
