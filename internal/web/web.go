package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"termcal/internal/config"
	"termcal/internal/ics"
	"termcal/internal/ingest"
	appLog "termcal/internal/log"
	"termcal/internal/model"
	"termcal/internal/schedule"
	"termcal/internal/store"
)

// Server provides the HTTP API: preview materialization, full-term ICS
// export, the upstream parse proxy and term-session storage.
type Server struct {
	cfg    *config.Config
	parser *ingest.Client
	terms  *store.Store
	mat    *schedule.Materializer
	mux    *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, parser *ingest.Client, terms *store.Store) *Server {
	s := &Server{
		cfg:    cfg,
		parser: parser,
		terms:  terms,
		mat:    schedule.NewMaterializer(cfg.Location(), cfg.Palette),
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for liveness checks.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="termcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, parser *ingest.Client, terms *store.Store) error {
	s := NewServer(cfg, parser, terms)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/ics", s.handleICS)
	s.mux.HandleFunc("POST /api/terms", s.handleTermCreate)
	s.mux.HandleFunc("GET /api/terms/{id}/events", s.handleTermEvents)
	s.mux.HandleFunc("GET /api/terms/{id}/ics", s.handleTermICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// termRequest is the JSON request body shared by /api/events, /api/ics and
// /api/terms: the term payload plus the filter configuration. A missing
// filters object means everything on.
type termRequest struct {
	Courses    []model.Course    `json:"courses"`
	StudyTasks []model.StudyTask `json:"study_tasks"`
	Filters    *model.Filters    `json:"filters"`

	// WeekOf anchors the preview window ("2006-01-02"). Empty means the
	// current week per the configured week start. Ignored by /api/ics.
	WeekOf string `json:"week_of,omitempty"`
}

func (r termRequest) filters() model.Filters {
	if r.Filters == nil {
		return model.DefaultFilters()
	}
	return *r.Filters
}

// eventDTO is a JSON-friendly view of one materialized event.
type eventDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Color    string    `json:"color"`
	Location string    `json:"location,omitempty"`
	Kind     string    `json:"kind"`
}

// eventsResponse is the JSON response shape for event materialization.
type eventsResponse struct {
	Events      []eventDTO `json:"events"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Timezone    string     `json:"timezone"`
	WeekStart   string     `json:"week_start"`
}

// handleEvents materializes one preview week from the posted payload.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	window, err := s.previewWindow(req.WeekOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad week_of: expected YYYY-MM-DD")
		return
	}

	events, err := s.mat.Materialize(req.Courses, req.StudyTasks, req.filters(), window)
	if err != nil {
		appLog.Error("api events: materialization failed", err)
		writeError(w, http.StatusInternalServerError, "failed to materialize events")
		return
	}

	writeJSON(w, http.StatusOK, s.eventsResponse(events, window))
}

// handleICS materializes the full term from the posted payload and returns
// the calendar-interchange document.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.serveICS(w, req.Courses, req.StudyTasks, req.filters())
}

// handleTermCreate stores the posted payload and filters under a fresh id.
func (s *Server) handleTermCreate(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	t := s.terms.Put(model.TermPayload{Courses: req.Courses, StudyTasks: req.StudyTasks}, req.filters())
	appLog.Info("api terms: stored term session",
		"id", t.ID, "course_count", len(req.Courses), "expires_at", t.ExpiresAt.Format(time.RFC3339))

	writeJSON(w, http.StatusCreated, struct {
		ID        string    `json:"id"`
		ExpiresAt time.Time `json:"expires_at"`
	}{ID: t.ID, ExpiresAt: t.ExpiresAt})
}

func (s *Server) handleTermEvents(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terms.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired term id")
		return
	}

	window, err := s.previewWindow(r.URL.Query().Get("week_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad week_of: expected YYYY-MM-DD")
		return
	}

	events, err := s.mat.Materialize(t.Payload.Courses, t.Payload.StudyTasks, t.Filters, window)
	if err != nil {
		appLog.Error("api terms: materialization failed", err, "id", t.ID)
		writeError(w, http.StatusInternalServerError, "failed to materialize events")
		return
	}

	writeJSON(w, http.StatusOK, s.eventsResponse(events, window))
}

func (s *Server) handleTermICS(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terms.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired term id")
		return
	}
	s.serveICS(w, t.Payload.Courses, t.Payload.StudyTasks, t.Filters)
}

// serveICS materializes the full-term window and writes the export document.
// The formatter never re-filters: inclusion was decided entirely here.
func (s *Server) serveICS(w http.ResponseWriter, courses []model.Course, tasks []model.StudyTask, filters model.Filters) {
	window, ok := schedule.TermWindow(courses, tasks, s.mat.Location)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "term contains no dated records")
		return
	}

	events, err := s.mat.Materialize(courses, tasks, filters, window)
	if err != nil {
		appLog.Error("api ics: materialization failed", err)
		writeError(w, http.StatusInternalServerError, "failed to materialize events")
		return
	}

	doc := ics.Serialize(events, time.Now())

	appLog.Info("api ics: export",
		"event_count", len(events),
		"window_start", window.Start.Format(time.RFC3339),
		"window_end", window.End.Format(time.RFC3339),
	)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ics.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// handleParse proxies multipart uploads to the upstream parsing service and
// returns its term payload.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, "no parser service configured")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files in upload")
		return
	}

	uploads := make([]ingest.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			appLog.Error("api parse: failed to read upload", err, "filename", fh.Filename)
			writeError(w, http.StatusBadRequest, "unreadable upload: "+fh.Filename)
			return
		}
		uploads = append(uploads, ingest.Upload{Filename: fh.Filename, Data: data})
	}

	result, err := s.parser.Parse(r.Context(), uploads)
	if err != nil {
		appLog.Error("api parse: upstream parse failed", err, "file_count", len(uploads))
		writeError(w, http.StatusBadGateway, "parse service failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result.Payload)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// previewWindow resolves the 7-day preview window. An explicit week_of date
// is used verbatim as the window start; otherwise the window anchors on the
// most recent configured week-start day.
func (s *Server) previewWindow(weekOf string) (schedule.Window, error) {
	loc := s.mat.Location

	if weekOf != "" {
		anchor, err := model.ParseDate(weekOf, loc)
		if err != nil {
			return schedule.Window{}, err
		}
		return schedule.WeekWindow(anchor), nil
	}

	startDay := time.Sunday
	if s.cfg.WeekStart == "monday" {
		startDay = time.Monday
	}
	now := time.Now().In(loc)
	back := (int(now.Weekday()) - int(startDay) + 7) % 7
	return schedule.WeekWindow(now.AddDate(0, 0, -back)), nil
}

func (s *Server) eventsResponse(events []model.CalendarEvent, window schedule.Window) eventsResponse {
	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, eventDTO{
			ID:       ev.ID,
			Title:    ev.Title,
			Start:    ev.Start,
			End:      ev.End,
			Color:    ev.Color,
			Location: ev.Location,
			Kind:     string(ev.Kind),
		})
	}
	return eventsResponse{
		Events:      dtos,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Timezone:    s.mat.Location.String(),
		WeekStart:   s.cfg.WeekStart,
	}
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst *termRequest) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty request body")
			return false
		}
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
