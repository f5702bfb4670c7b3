package entities

import "time"

// Candidate is an externally discovered video not yet admitted into
// inventory. The search provider reports durations in milliseconds.
type Candidate struct {
	YouTubeID      string
	Title          string
	DurationMillis int64
	UploadedAt     time.Time
}

// DurationSeconds rounds the provider duration to the nearest second.
func (c Candidate) DurationSeconds() int {
	return int((c.DurationMillis + 500) / 1000)
}

// Cost prices the candidate the same way an inventory video is priced.
func (c Candidate) Cost(baseRate float64) float64 {
	return float64(c.DurationSeconds()) / 30 * baseRate
}
