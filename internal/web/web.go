package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"stickerzip/internal/jobs"
)

// App is the admin surface: job listing plus a live per-job progress feed.
// It observes the registry; it never mutates jobs.
type App struct {
	logger   *slog.Logger
	router   *chi.Mux
	registry *jobs.Registry

	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

func NewApp(logger *slog.Logger, registry *jobs.Registry) *App {
	app := &App{
		logger:   logger,
		router:   chi.NewRouter(),
		registry: registry,
		subs:     make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	registry.AddListener(app)
	app.registerRoutes()
	return app
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) registerRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Recoverer)

	a.router.Get("/healthz", a.health)
	a.router.Get("/jobs", a.listJobs)
	a.router.Get("/jobs/{id}", a.getJob)
	a.router.Get("/ws/{id}", a.jobWS)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (a *App) listJobs(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.registry.Recent(20))
}

func (a *App) getJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	a.respondJSON(w, http.StatusOK, job)
}

func (a *App) jobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, ok := a.registry.Get(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	a.mu.Lock()
	if a.subs[jobID] == nil {
		a.subs[jobID] = make(map[*websocket.Conn]struct{})
	}
	a.subs[jobID][conn] = struct{}{}
	a.mu.Unlock()

	_ = conn.WriteJSON(job.Event())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	a.mu.Lock()
	delete(a.subs[jobID], conn)
	a.mu.Unlock()
	_ = conn.Close()
}

// JobUpdated implements jobs.Listener.
func (a *App) JobUpdated(evt jobs.ProgressEvent) {
	a.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(a.subs[evt.ID]))
	for c := range a.subs[evt.ID] {
		conns = append(conns, c)
	}
	a.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(evt); err != nil {
			a.mu.Lock()
			delete(a.subs[evt.ID], c)
			a.mu.Unlock()
			_ = c.Close()
		}
	}
}

func (a *App) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode json", "error", err)
	}
}
