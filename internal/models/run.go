package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a collection run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// DayLayout is the calendar-day format used for run gating and featured picks
const DayLayout = "2006-01-02"

// CronRun is the ledger record of one orchestration attempt
type CronRun struct {
	ID          uuid.UUID   `json:"id"`
	Day         string      `json:"day"`
	Status      RunStatus   `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Results     *RunResults `json:"results,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// CollectDetails summarizes one sport's collection pass
type CollectDetails struct {
	Sport          Sport    `json:"sport"`
	Events         int      `json:"events"`
	EventsFailed   int      `json:"events_failed"`
	Games          int      `json:"games"`
	Quotes         int      `json:"quotes"`
	Props          int      `json:"props"`
	UpsertFailures int      `json:"upsert_failures"`
	Errors         []string `json:"errors,omitempty"`
	DurationMs     float64  `json:"duration_ms"`
}

// RunResults is the snapshot stored on a run and returned by the trigger.
// Sports is keyed by league code and flattened next to "errors" when encoded.
type RunResults struct {
	Sports        map[Sport]*CollectDetails
	Errors        []string
	Timings       map[string]float64
	FeaturedCount int
	FeaturedError string
}

// NewRunResults returns an empty results snapshot
func NewRunResults() *RunResults {
	return &RunResults{
		Sports:  make(map[Sport]*CollectDetails),
		Errors:  []string{},
		Timings: make(map[string]float64),
	}
}

// MarshalJSON renders {"<sport>": details, ..., "errors": [...], "timings": {...}, "featured": {...}}
func (r *RunResults) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Sports)+3)
	for sport, details := range r.Sports {
		out[string(sport)] = details
	}

	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	out["errors"] = errs
	out["timings"] = r.Timings

	featured := map[string]interface{}{"count": r.FeaturedCount}
	if r.FeaturedError != "" {
		featured["error"] = r.FeaturedError
	}
	out["featured"] = featured

	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON
func (r *RunResults) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = *NewRunResults()
	for key, value := range raw {
		switch key {
		case "errors":
			if err := json.Unmarshal(value, &r.Errors); err != nil {
				return err
			}
		case "timings":
			if err := json.Unmarshal(value, &r.Timings); err != nil {
				return err
			}
		case "featured":
			var featured struct {
				Count int    `json:"count"`
				Error string `json:"error"`
			}
			if err := json.Unmarshal(value, &featured); err != nil {
				return err
			}
			r.FeaturedCount = featured.Count
			r.FeaturedError = featured.Error
		default:
			var details CollectDetails
			if err := json.Unmarshal(value, &details); err != nil {
				return err
			}
			r.Sports[Sport(key)] = &details
		}
	}

	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Timings == nil {
		r.Timings = make(map[string]float64)
	}
	return nil
}
