package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
)

// DeviceResponse is the API response for a device
type DeviceResponse struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Battery  int    `json:"battery"`
	LastSeen string `json:"last_seen"`
}

// TaskRecordResponse is the API response for a task record
type TaskRecordResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Device   string `json:"device"`
	Duration string `json:"duration"`
}

// MetricsResponse is the API response for aggregated metrics
type MetricsResponse struct {
	TotalTasksSuccess int    `json:"total_tasks_success"`
	TotalTasksFailure int    `json:"total_tasks_failure"`
	TasksInProgress   int    `json:"tasks_in_progress"`
	AvgDuration       string `json:"avg_duration"`
}

// ExecuteRequest is the body of POST /api/execute. All fields are
// optional; empty ones take the documented defaults.
type ExecuteRequest struct {
	TaskDescription string `json:"task_description"`
	DeviceID        string `json:"device_id"`
	Learning        *bool  `json:"learning,omitempty"`
}

// ExecuteResponse acknowledges a started run
type ExecuteResponse struct {
	RunID  int64  `json:"run_id"`
	Status string `json:"status"`
}

// MemoryResponse lists recorded episodes
type MemoryResponse struct {
	Episodes []domain.Episode `json:"episodes"`
	Count    int              `json:"count"`
}

func deviceToResponse(d *domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:       d.ID,
		Platform: d.Platform,
		Status:   string(d.Status),
		Battery:  d.Battery,
		LastSeen: d.LastSeen.Format(time.RFC3339),
	}
}

func taskRecordToResponse(r *domain.TaskRecord) TaskRecordResponse {
	return TaskRecordResponse{
		ID:       r.ID,
		Name:     r.Name,
		Status:   string(r.Status),
		Device:   r.Device,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
}

func (s *Server) listDevicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		devices, err := s.fleet.ListDevices()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		responses := make([]DeviceResponse, 0, len(devices))
		for _, d := range devices {
			responses = append(responses, deviceToResponse(d))
		}
		writeJSON(w, responses)
	}
}

func (s *Server) listTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		records, err := s.fleet.ListTaskRecords(50)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		responses := make([]TaskRecordResponse, 0, len(records))
		for _, rec := range records {
			responses = append(responses, taskRecordToResponse(rec))
		}
		writeJSON(w, responses)
	}
}

func (s *Server) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		m, err := s.fleet.Metrics()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, MetricsResponse{
			TotalTasksSuccess: m.TotalTasksSuccess,
			TotalTasksFailure: m.TotalTasksFailure,
			TasksInProgress:   m.TasksInProgress,
			AvgDuration:       m.AvgDuration.Round(time.Millisecond).String(),
		})
	}
}

func (s *Server) executeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		// An empty or malformed body degrades to defaults; execute
		// never rejects input.
		var body ExecuteRequest
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			json.Unmarshal(data, &body)
		}

		req := domain.TaskRequest{
			TaskDescription: body.TaskDescription,
			DeviceID:        body.DeviceID,
			Learning:        body.Learning,
		}.Normalized()

		recordID, err := s.fleet.InsertTaskRecord(&domain.TaskRecord{
			Name:      req.TaskDescription,
			Status:    domain.TaskInProgress,
			Device:    req.DeviceID,
			CreatedAt: time.Now(),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.fleet.SetDeviceStatus(req.DeviceID, domain.DeviceBusy)

		started := time.Now()
		handle := s.engine.StartRun(req, func(ev domain.LifecycleEvent) {
			s.Broadcast(SSEEvent{Type: "task_update", Data: ev})
			if s.hub != nil {
				s.hub.BroadcastEvent(ev)
			}
			if ev.Kind == domain.KindCompleted {
				s.fleet.UpdateTaskRecord(recordID, domain.TaskSuccess, time.Since(started))
				s.fleet.SetDeviceStatus(req.DeviceID, domain.DeviceOnline)
			}
		})

		writeJSON(w, ExecuteResponse{RunID: handle.RunID, Status: handle.Status})
	}
}

func (s *Server) memoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		eps := s.episodes.List()
		writeJSON(w, MemoryResponse{Episodes: eps, Count: len(eps)})
	}
}

func (s *Server) memoryResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		s.episodes.Reset()
		s.Broadcast(SSEEvent{Type: "memory_reset", Data: nil})
		writeJSON(w, map[string]string{"status": "reset"})
	}
}
