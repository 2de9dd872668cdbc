package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"stickerzip/internal/jobs"
)

func newTestApp(t *testing.T) (*App, *jobs.Registry, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := jobs.NewRegistry(logger)
	app := NewApp(logger, registry)
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return app, registry, srv
}

func TestHealthz(t *testing.T) {
	_, _, srv := newTestApp(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestListJobs(t *testing.T) {
	_, registry, srv := newTestApp(t)
	registry.Create("MySet", 1)

	resp, err := http.Get(srv.URL + "/jobs")
	if err != nil {
		t.Fatalf("GET /jobs: %v", err)
	}
	defer resp.Body.Close()

	var got []jobs.Job
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(got) != 1 || got[0].SetName != "MySet" {
		t.Fatalf("jobs = %+v", got)
	}
}

func TestGetJob(t *testing.T) {
	_, registry, srv := newTestApp(t)
	job := registry.Create("MySet", 1)

	resp, err := http.Get(srv.URL + "/jobs/" + job.ID)
	if err != nil {
		t.Fatalf("GET /jobs/{id}: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got jobs.Job
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.ID != job.ID {
		t.Fatalf("job = %+v", got)
	}
}

func TestGetJobNotFound(t *testing.T) {
	_, _, srv := newTestApp(t)

	resp, err := http.Get(srv.URL + "/jobs/unknown")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestJobWebSocketStreamsProgress(t *testing.T) {
	_, registry, srv := newTestApp(t)
	job := registry.Create("MySet", 1)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// First frame is the current snapshot.
	var snapshot jobs.ProgressEvent
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if snapshot.ID != job.ID || snapshot.Status != jobs.StatusResolving {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	registry.Update(job.ID, func(j *jobs.Job) {
		j.Status = jobs.StatusConverting
		j.Total = 12
	})

	var evt jobs.ProgressEvent
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("reading update: %v", err)
	}
	if evt.Status != jobs.StatusConverting || evt.Total != 12 {
		t.Fatalf("event = %+v", evt)
	}
}

func TestJobWebSocketUnknownJob(t *testing.T) {
	_, _, srv := newTestApp(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/unknown"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown job")
	}
	if resp != nil && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
