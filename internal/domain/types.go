package domain

// EventKind identifies a lifecycle event emitted during a simulation run
type EventKind string

const (
	KindPerception      EventKind = "perception"
	KindPlanning        EventKind = "planning"
	KindExecutionStart  EventKind = "execution_start"
	KindError           EventKind = "error"
	KindRecoveryAnalyze EventKind = "recovery_analyze"
	KindRecoveryPlan    EventKind = "recovery_plan"
	KindRecoveryExecute EventKind = "recovery_execute"
	KindCompleted       EventKind = "completed"
	KindMemorySaved     EventKind = "memory_saved"
)

// Valid reports whether k is one of the known event kinds
func (k EventKind) Valid() bool {
	switch k {
	case KindPerception, KindPlanning, KindExecutionStart, KindError,
		KindRecoveryAnalyze, KindRecoveryPlan, KindRecoveryExecute,
		KindCompleted, KindMemorySaved:
		return true
	}
	return false
}

// DeviceStatus represents the connection state of a registered device
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceOffline DeviceStatus = "offline"
	DeviceBusy    DeviceStatus = "busy"
)

// TaskRecordStatus represents the outcome state of a recorded task
type TaskRecordStatus string

const (
	TaskSuccess    TaskRecordStatus = "success"
	TaskFailure    TaskRecordStatus = "failure"
	TaskInProgress TaskRecordStatus = "in_progress"
)
