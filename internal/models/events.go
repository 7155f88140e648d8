package models

import "time"

// Pipeline event types published on the events topic
const (
	EventRunFinished         = "run.finished"
	EventFeaturedRegenerated = "featured.regenerated"
)

// PipelineEvent is the envelope published for downstream consumers
type PipelineEvent struct {
	Type      string         `json:"type"`
	Day       string         `json:"day"`
	Run       *CronRun       `json:"run,omitempty"`
	Featured  []FeaturedPick `json:"featured,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CollectionRequest is a trigger message consumed from the trigger topic
type CollectionRequest struct {
	RequestID   string    `json:"request_id"`
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}
