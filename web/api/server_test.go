package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
	"github.com/autorl-dev/autorl/internal/episodes"
	"github.com/autorl-dev/autorl/internal/sim"
)

type mockFleet struct {
	mu      sync.Mutex
	devices []*domain.Device
	records []*domain.TaskRecord
	updated chan int64

	statusCalls []string
}

func newMockFleet() *mockFleet {
	return &mockFleet{
		devices: []*domain.Device{
			{ID: "android_pixel_7", Platform: "android", Status: domain.DeviceOnline, Battery: 87, LastSeen: time.Now()},
			{ID: "iphone_15", Platform: "ios", Status: domain.DeviceOffline, Battery: 12, LastSeen: time.Now()},
		},
		updated: make(chan int64, 1),
	}
}

func (m *mockFleet) ListDevices() ([]*domain.Device, error) {
	return m.devices, nil
}

func (m *mockFleet) SetDeviceStatus(id string, status domain.DeviceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls = append(m.statusCalls, id+":"+string(status))
	return nil
}

func (m *mockFleet) ListTaskRecords(limit int) ([]*domain.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}

func (m *mockFleet) InsertTaskRecord(r *domain.TaskRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.records) + 1)
	m.records = append(m.records, r)
	return r.ID, nil
}

func (m *mockFleet) UpdateTaskRecord(id int64, status domain.TaskRecordStatus, duration time.Duration) error {
	m.mu.Lock()
	for _, r := range m.records {
		if r.ID == id {
			r.Status = status
			r.Duration = duration
		}
	}
	m.mu.Unlock()

	select {
	case m.updated <- id:
	default:
	}
	return nil
}

func (m *mockFleet) Metrics() (*domain.Metrics, error) {
	return &domain.Metrics{
		TotalTasksSuccess: 12,
		TotalTasksFailure: 3,
		TasksInProgress:   1,
		AvgDuration:       4200 * time.Millisecond,
	}, nil
}

func newTestServer(t *testing.T) (*Server, *mockFleet, *episodes.Log) {
	t.Helper()

	log := episodes.NewLog()
	engine := sim.New(log,
		sim.WithConfig(sim.Config{ErrorProbability: 0.45}),
		sim.WithRandom(func() float64 { return 0.9 }),
	)
	fleet := newMockFleet()
	return NewServer(fleet, engine, log, nil, "127.0.0.1:0"), fleet, log
}

func TestListDevices(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var devices []DeviceResponse
	if err := json.NewDecoder(w.Body).Decode(&devices); err != nil {
		t.Fatal(err)
	}
	if len(devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(devices))
	}
	if devices[0].ID != "android_pixel_7" || devices[0].Status != "online" {
		t.Errorf("device[0] = %+v", devices[0])
	}
}

func TestListTasks(t *testing.T) {
	srv, fleet, _ := newTestServer(t)
	fleet.records = []*domain.TaskRecord{
		{ID: 1, Name: "Order coffee", Status: domain.TaskSuccess, Device: "iphone_15", Duration: 3 * time.Second},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var tasks []TaskRecordResponse
	if err := json.NewDecoder(w.Body).Decode(&tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Order coffee" || tasks[0].Duration != "3s" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var m MetricsResponse
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.TotalTasksSuccess != 12 || m.TotalTasksFailure != 3 {
		t.Errorf("metrics = %+v", m)
	}
	if m.AvgDuration != "4.2s" {
		t.Errorf("AvgDuration = %s, want 4.2s", m.AvgDuration)
	}
}

func TestExecute(t *testing.T) {
	srv, fleet, _ := newTestServer(t)

	body := strings.NewReader(`{"task_description": "Order pizza", "device_id": "iphone_15"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/execute", body)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp ExecuteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.RunID < 1 {
		t.Errorf("RunID = %d, want >= 1", resp.RunID)
	}
	if resp.Status != "started" {
		t.Errorf("Status = %q, want started", resp.Status)
	}

	// The zero-delay run finishes quickly and marks the record done.
	select {
	case id := <-fleet.updated:
		fleet.mu.Lock()
		rec := fleet.records[id-1]
		fleet.mu.Unlock()
		if rec.Status != domain.TaskSuccess {
			t.Errorf("record status = %s, want success", rec.Status)
		}
		if rec.Name != "Order pizza" || rec.Device != "iphone_15" {
			t.Errorf("record = %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task record was never updated")
	}
}

func TestExecuteDefaults(t *testing.T) {
	srv, fleet, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	select {
	case <-fleet.updated:
	case <-time.After(2 * time.Second):
		t.Fatal("task record was never updated")
	}

	fleet.mu.Lock()
	rec := fleet.records[0]
	fleet.mu.Unlock()
	if rec.Name != domain.DefaultTaskDescription {
		t.Errorf("Name = %q, want default task", rec.Name)
	}
	if rec.Device != domain.DefaultDeviceID {
		t.Errorf("Device = %q, want default device", rec.Device)
	}
}

func TestMemoryEndpoints(t *testing.T) {
	srv, _, log := newTestServer(t)

	log.Append(domain.Episode{RunID: 1, TaskDescription: "Send $20 to Jane", DeviceID: "android_pixel_7", Timestamp: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/api/memory", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var mem MemoryResponse
	if err := json.NewDecoder(w.Body).Decode(&mem); err != nil {
		t.Fatal(err)
	}
	if mem.Count != 1 || len(mem.Episodes) != 1 {
		t.Fatalf("memory = %+v", mem)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/memory/reset", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", w.Code)
	}
	if log.Len() != 0 {
		t.Errorf("episodes after reset = %d, want 0", log.Len())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/devices"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodPost, "/api/metrics"},
		{http.MethodGet, "/api/execute"},
		{http.MethodPost, "/api/memory"},
		{http.MethodGet, "/api/memory/reset"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tt.method, tt.path, w.Code)
		}
	}
}
