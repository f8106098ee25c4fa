package domain

import "testing"

func TestTaskRequest_Normalized(t *testing.T) {
	req := TaskRequest{}.Normalized()

	if req.TaskDescription != DefaultTaskDescription {
		t.Errorf("TaskDescription = %q, want %q", req.TaskDescription, DefaultTaskDescription)
	}
	if req.DeviceID != DefaultDeviceID {
		t.Errorf("DeviceID = %q, want %q", req.DeviceID, DefaultDeviceID)
	}
}

func TestTaskRequest_NormalizedKeepsValues(t *testing.T) {
	req := TaskRequest{TaskDescription: "Order coffee", DeviceID: "ios_iphone_15"}.Normalized()

	if req.TaskDescription != "Order coffee" {
		t.Errorf("TaskDescription = %q, want unchanged", req.TaskDescription)
	}
	if req.DeviceID != "ios_iphone_15" {
		t.Errorf("DeviceID = %q, want unchanged", req.DeviceID)
	}
}

func TestTaskRequest_LearningEnabled(t *testing.T) {
	off := false
	on := true

	tests := []struct {
		name string
		req  TaskRequest
		want bool
	}{
		{"unset defaults to enabled", TaskRequest{}, true},
		{"explicitly enabled", TaskRequest{Learning: &on}, true},
		{"explicitly disabled", TaskRequest{Learning: &off}, false},
	}

	for _, tt := range tests {
		if got := tt.req.LearningEnabled(); got != tt.want {
			t.Errorf("%s: LearningEnabled() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEventKind_Valid(t *testing.T) {
	kinds := []EventKind{
		KindPerception, KindPlanning, KindExecutionStart, KindError,
		KindRecoveryAnalyze, KindRecoveryPlan, KindRecoveryExecute,
		KindCompleted, KindMemorySaved,
	}
	for _, k := range kinds {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}

	if EventKind("teleport").Valid() {
		t.Error("unknown kind should not be valid")
	}
}
