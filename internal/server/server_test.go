package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claroapp/claro-notify/internal/scheduler"
)

const testYAML = `morning_reflection:
  hour: "09:00"
  prompt: "Ask how the morning is going."
  frequency: 1.0
afternoon_checkin:
  hours_range:
    from: "14:00"
    to: "17:00"
  prompt: "Check in about the afternoon."
  frequency: 0.5
`

func testServer(t *testing.T, prepare PrepareFunc) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notification-schedule.yaml")
	return New(path, "23:30", prepare, "test-version"), path
}

func writeTestConfig(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(testYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, path := testServer(t, nil)
	writeTestConfig(t, path)

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["config"] != true {
		t.Errorf("config = %v, want true", body["config"])
	}
}

func TestHealthMissingConfigIsOK(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["config"] != true {
		t.Errorf("config = %v, want true for absent file", body["config"])
	}
}

func TestGetConfig(t *testing.T) {
	srv, path := testServer(t, nil)
	writeTestConfig(t, path)

	w := do(t, srv, "GET", "/api/notifications/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body configJSON
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(body.Notifications))
	}

	morning := body.Notifications["morning_reflection"]
	if morning.Hour != "09:00" {
		t.Errorf("hour = %q, want 09:00", morning.Hour)
	}
	if morning.Frequency != 1.0 {
		t.Errorf("frequency = %v, want 1.0", morning.Frequency)
	}

	afternoon := body.Notifications["afternoon_checkin"]
	if afternoon.HoursRange == nil {
		t.Fatal("expected hours_range")
	}
	if afternoon.HoursRange.From != "14:00" || afternoon.HoursRange.To != "17:00" {
		t.Errorf("hours_range = %+v", afternoon.HoursRange)
	}
}

func TestGetConfigMissingFile(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := do(t, srv, "GET", "/api/notifications/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body configJSON
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Notifications) != 0 {
		t.Errorf("got %d notifications, want 0", len(body.Notifications))
	}
}

func TestPutConfigRoundTrip(t *testing.T) {
	srv, path := testServer(t, nil)

	put := `{"notifications": {
		"evening_gratitude": {"hour": "21:00", "prompt": "Ask about something good today.", "frequency": 1.0},
		"midday_break": {"hours_range": {"from": "11:30", "to": "13:00"}, "prompt": "Suggest a short break.", "frequency": 0.7}
	}}`

	w := do(t, srv, "PUT", "/api/notifications/config", put)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	w = do(t, srv, "GET", "/api/notifications/config", "")
	var body configJSON
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(body.Notifications))
	}
	if body.Notifications["evening_gratitude"].Hour != "21:00" {
		t.Errorf("hour = %q", body.Notifications["evening_gratitude"].Hour)
	}
	if body.Notifications["midday_break"].HoursRange == nil {
		t.Error("expected hours_range to survive the round trip")
	}
}

func TestPutConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid json",
			body: `{notifications`,
		},
		{
			name: "both timing fields",
			body: `{"notifications": {"x": {"hour": "09:00", "hours_range": {"from": "10:00", "to": "11:00"}, "prompt": "p", "frequency": 1}}}`,
		},
		{
			name: "no timing field",
			body: `{"notifications": {"x": {"prompt": "p", "frequency": 1}}}`,
		},
		{
			name: "bad hour",
			body: `{"notifications": {"x": {"hour": "25:00", "prompt": "p", "frequency": 1}}}`,
		},
		{
			name: "inverted range",
			body: `{"notifications": {"x": {"hours_range": {"from": "17:00", "to": "14:00"}, "prompt": "p", "frequency": 1}}}`,
		},
		{
			name: "missing prompt",
			body: `{"notifications": {"x": {"hour": "09:00", "frequency": 1}}}`,
		},
		{
			name: "negative frequency",
			body: `{"notifications": {"x": {"hour": "09:00", "prompt": "p", "frequency": -0.5}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, path := testServer(t, nil)

			w := do(t, srv, "PUT", "/api/notifications/config", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected error message in body")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("rejected config must not be written")
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	called := false
	prepare := func(ctx context.Context) (scheduler.Summary, error) {
		called = true
		return scheduler.Summary{Scheduled: 2, Skipped: 1}, nil
	}
	srv, _ := testServer(t, prepare)

	w := do(t, srv, "POST", "/api/notifications/prepare", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Fatal("prepare func not invoked")
	}

	var sum scheduler.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sum.Scheduled != 2 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestPrepareNotConfigured(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := do(t, srv, "POST", "/api/notifications/prepare", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestPrepareError(t *testing.T) {
	prepare := func(ctx context.Context) (scheduler.Summary, error) {
		return scheduler.Summary{}, errors.New("no schedule config")
	}
	srv, _ := testServer(t, prepare)

	w := do(t, srv, "POST", "/api/notifications/prepare", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestStatus(t *testing.T) {
	srv, path := testServer(t, nil)
	writeTestConfig(t, path)

	w := do(t, srv, "GET", "/api/notifications/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		ConfigPath    string   `json:"config_path"`
		Notifications []string `json:"notifications"`
		DailyRun      string   `json:"daily_run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ConfigPath != path {
		t.Errorf("config_path = %q, want %q", body.ConfigPath, path)
	}
	if body.DailyRun != "23:30" {
		t.Errorf("daily_run = %q", body.DailyRun)
	}
	want := []string{"afternoon_checkin", "morning_reflection"}
	if len(body.Notifications) != 2 || body.Notifications[0] != want[0] || body.Notifications[1] != want[1] {
		t.Errorf("notifications = %v, want %v", body.Notifications, want)
	}
}
