package domain

import "time"

// Default request values substituted for empty fields
const (
	DefaultTaskDescription = "Send $20 to Jane"
	DefaultDeviceID        = "android_pixel_7"
)

// TaskRequest describes what a simulation run should pretend to do.
// Learning is a tri-state so that an omitted field defaults to enabled.
type TaskRequest struct {
	TaskDescription string `json:"task_description"`
	DeviceID        string `json:"device_id"`
	Learning        *bool  `json:"learning,omitempty"`
}

// LearningEnabled reports whether the run should record an episode.
// Unset means enabled.
func (r TaskRequest) LearningEnabled() bool {
	return r.Learning == nil || *r.Learning
}

// Normalized returns a copy with documented defaults substituted for
// empty fields. Requests are never rejected.
func (r TaskRequest) Normalized() TaskRequest {
	if r.TaskDescription == "" {
		r.TaskDescription = DefaultTaskDescription
	}
	if r.DeviceID == "" {
		r.DeviceID = DefaultDeviceID
	}
	return r
}

// LifecycleEvent is one timed, typed notification emitted during a run.
// Optional fields are present only for the kinds that carry them.
type LifecycleEvent struct {
	Kind       EventKind `json:"event"`
	RunID      int64     `json:"run_id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Plan       []string  `json:"plan,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Progress   int       `json:"progress,omitempty"`
	Severity   string    `json:"severity,omitempty"`
	Success    bool      `json:"success,omitempty"`
	Reward     float64   `json:"reward,omitempty"`
}

// Episode records a completed run when learning is enabled
type Episode struct {
	RunID           int64     `json:"run_id"`
	TaskDescription string    `json:"task_description"`
	DeviceID        string    `json:"device_id"`
	Timestamp       time.Time `json:"timestamp"`
}
