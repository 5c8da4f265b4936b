// Package store persists call metadata, transcript chunks, summaries, and
// extracted locations to a key/partition store, keyed by lowercased callID.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// ErrInvalidID is returned when an empty callID is supplied.
var ErrInvalidID = errors.New("store: invalid call ID")

// Row keys are fixed strings for singleton records; TranscriptChunk rows are
// generated per chunk via TranscriptTick.
const (
	rowCall     = "call"
	rowSummary  = "summary"
	rowLocation = "location"
)

// CallRecord is the persisted metadata for one call.
type CallRecord struct {
	CallID          string
	From            string
	To              string
	Direction       string
	Status          string
	StartedAt       time.Time
	CompletedAt     *time.Time
	DurationSeconds *float64
	HasActiveStream bool
	StreamID        string
}

// TranscriptChunk is one persisted increment of a call's transcript.
type TranscriptChunk struct {
	CallID       string
	StreamID     string
	Text         string
	IsFinal      bool
	Confidence   *float64
	TimestampUTC time.Time
	Sequence     int64
}

// SummaryRecord is the persisted end-of-call summary.
type SummaryRecord struct {
	CallID         string
	Summary        string
	KeyFindings    []string
	GeneratedAtUTC time.Time
}

// LocationRecord is the persisted extracted location, only ever stored when
// a formatted address was produced.
type LocationRecord struct {
	CallID           string
	RawText          string
	Latitude         *float64
	Longitude        *float64
	FormattedAddress string
	Confidence       float64
}

// transcriptEpoch is the fixed epoch TranscriptTick ticks are measured from.
var transcriptEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// TranscriptTick returns the 20-digit zero-padded ordering key for a
// TranscriptChunk row: 100-nanosecond ticks elapsed since a fixed epoch.
// Strictly increasing for a monotonically advancing clock, so it also
// serves as the chunk's tie-break against concurrent sequence numbers.
func TranscriptTick(t time.Time) string {
	ticks := t.Sub(transcriptEpoch).Nanoseconds() / 100
	return fmt.Sprintf("%020d", ticks)
}

// CallStore persists and updates CallRecords.
type CallStore interface {
	UpsertCall(ctx context.Context, rec CallRecord) error
	GetCall(ctx context.Context, callID string) (*CallRecord, error)
	// UpdateStream read-modify-writes the stream fields of an existing
	// CallRecord, creating a minimal record if none exists yet.
	UpdateStream(ctx context.Context, callID, streamID string, active bool) error
	// UpdateStatus read-modify-writes the status field of an existing
	// CallRecord, creating a minimal record if none exists yet.
	UpdateStatus(ctx context.Context, callID, status string) error
}

// TranscriptStore appends and lists TranscriptChunks for a call.
type TranscriptStore interface {
	Append(ctx context.Context, chunk TranscriptChunk) error
	List(ctx context.Context, callID string) ([]TranscriptChunk, error)
}

// SummaryStore upserts and fetches the SummaryRecord for a call.
type SummaryStore interface {
	UpsertSummary(ctx context.Context, rec SummaryRecord) error
	GetSummary(ctx context.Context, callID string) (*SummaryRecord, error)
}

// LocationStore upserts and fetches the LocationRecord for a call.
type LocationStore interface {
	UpsertLocation(ctx context.Context, rec LocationRecord) error
	GetLocation(ctx context.Context, callID string) (*LocationRecord, error)
}
