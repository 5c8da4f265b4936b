// Package insights adapts the Media Session Pipeline to a cloud chat
// completion API for end-of-segment and end-of-call extraction of a
// running summary, key findings, and a geographic location. Like the
// transcription package, adapters here never raise to the session
// layer: every failure is logged and reported as "no result".
package insights

import (
	"context"
	"strings"
)

// SummaryRecord is the upserted, last-writer-wins call summary.
type SummaryRecord struct {
	CallID         string
	Summary        string
	KeyFindings    []string
	GeneratedAtUTC string
}

// LocationRecord is only persisted when a formatted address exists.
type LocationRecord struct {
	CallID           string
	RawText          string
	Latitude         *float64
	Longitude        *float64
	FormattedAddress string
	Confidence       float64
}

// Insights is the optional outcome of one Extract call: either field may
// be nil independently.
type Insights struct {
	Summary  *SummaryRecord
	Location *LocationRecord
}

// Extractor extracts end-of-segment or end-of-call insights from an
// accumulated transcript.
type Extractor interface {
	Extract(ctx context.Context, callID, transcript string, isFinal bool) (*Insights, error)
}

// isBlank reports whether transcript has no meaningful content, in which
// case Extract must return nothing without a remote call.
func isBlank(transcript string) bool {
	return strings.TrimSpace(transcript) == ""
}
