package domain

import "time"

// Device represents a registered mock device in the fleet
type Device struct {
	ID       string       `json:"id"`
	Platform string       `json:"platform"`
	Status   DeviceStatus `json:"status"`
	Battery  int          `json:"battery"`
	LastSeen time.Time    `json:"last_seen"`
}

// TaskRecord represents a finished or in-flight task in the registry
type TaskRecord struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Status    TaskRecordStatus `json:"status"`
	Device    string           `json:"device"`
	Duration  time.Duration    `json:"duration"`
	CreatedAt time.Time        `json:"created_at"`
}

// Metrics aggregates task outcomes for the dashboard
type Metrics struct {
	TotalTasksSuccess int           `json:"total_tasks_success"`
	TotalTasksFailure int           `json:"total_tasks_failure"`
	TasksInProgress   int           `json:"tasks_in_progress"`
	AvgDuration       time.Duration `json:"avg_duration"`
}
