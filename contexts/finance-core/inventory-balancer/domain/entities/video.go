package entities

import "time"

type VideoStatus string

const (
	VideoStatusAvailable VideoStatus = "AVAILABLE"
	VideoStatusClaimed   VideoStatus = "CLAIMED"
	VideoStatusCompleted VideoStatus = "COMPLETED"
)

// Video is a transcription work item held in inventory. Only AVAILABLE
// videos participate in balancing; claims and completions happen outside
// this module.
type Video struct {
	ID              string
	YouTubeID       string
	Title           string
	DurationSeconds int
	Status          VideoStatus
	CreatedAt       time.Time
}

// Cost prices a video at baseRate currency units per 30 seconds of content.
func (v Video) Cost(baseRate float64) float64 {
	return float64(v.DurationSeconds) / 30 * baseRate
}

func (v Video) IsAvailable() bool {
	return v.Status == VideoStatusAvailable
}
