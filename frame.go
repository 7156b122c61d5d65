package deckpdf

import "time"

// Frame is one captured slide.
type Frame struct {
	// Index is the 1-based position of the slide in capture order.
	Index int
	// Data is the PNG screenshot. It must not be modified.
	Data       []byte
	CapturedAt time.Time
}

// StopReason records why the capture loop ended.
type StopReason int

const (
	// StopEstimate means the estimated slide count was reached.
	StopEstimate StopReason = iota
	// StopDuplicate means advancing no longer changed the screen.
	StopDuplicate
	// StopCeiling means the safety ceiling was reached.
	StopCeiling
)

func (r StopReason) String() string {
	switch r {
	case StopEstimate:
		return "estimate"
	case StopDuplicate:
		return "duplicate"
	case StopCeiling:
		return "ceiling"
	}
	return "unknown"
}

// CaptureResult is the ordered output of [Capture].
type CaptureResult struct {
	Frames []Frame
	Stop   StopReason
}

// Len returns the number of captured frames.
func (r *CaptureResult) Len() int {
	return len(r.Frames)
}
