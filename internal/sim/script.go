package sim

import (
	"fmt"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
)

// Narrative constants observed in the reference simulation
const (
	perceptionConfidence = 0.97
	planningConfidence   = 0.94
	completionReward     = 0.98

	executionStartProgress  = 10
	recoveryExecuteProgress = 70
)

var (
	taskPlan     = []string{"tap_send", "type_amount", "select_recipient", "confirm"}
	recoveryPlan = []string{"tap_allow", "resume_sequence"}
)

// step pairs the delay preceding an emission with the event template.
// RunID and Timestamp are filled in at emission time.
type step struct {
	delay time.Duration
	event domain.LifecycleEvent
}

// runScript builds the ordered step list for one run. The error-recovery
// sub-sequence appears in full or not at all.
func runScript(req domain.TaskRequest, errorPath bool, t Timings) []step {
	steps := []step{
		{t.Perception, domain.LifecycleEvent{
			Kind:       domain.KindPerception,
			Text:       fmt.Sprintf("Captured screen state on %s", req.DeviceID),
			Confidence: perceptionConfidence,
		}},
		{t.Planning, domain.LifecycleEvent{
			Kind:       domain.KindPlanning,
			Text:       fmt.Sprintf("Planned %d actions for %q", len(taskPlan), req.TaskDescription),
			Plan:       taskPlan,
			Confidence: planningConfidence,
		}},
		{t.ExecutionStart, domain.LifecycleEvent{
			Kind:     domain.KindExecutionStart,
			Text:     "Executing action sequence",
			Progress: executionStartProgress,
		}},
	}

	if errorPath {
		steps = append(steps,
			step{t.Error, domain.LifecycleEvent{
				Kind:     domain.KindError,
				Text:     "Unexpected permission dialog is blocking the target element",
				Severity: "warning",
			}},
			step{t.RecoveryAnalyze, domain.LifecycleEvent{
				Kind: domain.KindRecoveryAnalyze,
				Text: "Analyzing obstruction against known recovery patterns",
			}},
			step{t.RecoveryPlan, domain.LifecycleEvent{
				Kind: domain.KindRecoveryPlan,
				Text: "Recovery plan ready",
				Plan: recoveryPlan,
			}},
			step{t.RecoveryExecute, domain.LifecycleEvent{
				Kind:     domain.KindRecoveryExecute,
				Text:     "Dismissed dialog, resuming action sequence",
				Progress: recoveryExecuteProgress,
			}},
		)
	}

	steps = append(steps, step{t.Completed, domain.LifecycleEvent{
		Kind:    domain.KindCompleted,
		Text:    fmt.Sprintf("Task %q completed on %s", req.TaskDescription, req.DeviceID),
		Success: true,
		Reward:  completionReward,
	}})

	return steps
}

// memorySavedEvent follows completed with no additional delay
func memorySavedEvent(runID int64, req domain.TaskRequest) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Kind:      domain.KindMemorySaved,
		RunID:     runID,
		Text:      fmt.Sprintf("Episode recorded for %q", req.TaskDescription),
		Timestamp: time.Now(),
	}
}
