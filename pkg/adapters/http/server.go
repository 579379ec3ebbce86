// Package http exposes the review funnel over HTTP. The funnel address
// (/review/{campaignId}/step/{n}) is served directly: visiting it mounts or
// resumes a session and canonicalizes the address with a redirect.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/dto"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/validation"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCookie carries the session id between address-bar visits.
// The X-Funnel-Session header is accepted as well.
const SessionCookie = "funnel_session"

// Engine defines the funnel operations the HTTP surface needs.
type Engine interface {
	Mount(ctx context.Context, viewer domain.Viewer, campaignID string) (*domain.Session, error)
	Session(ctx context.Context, id string) (*domain.Session, error)
	View(ctx context.Context, id string) (domain.View, error)
	Update(ctx context.Context, id string, patch domain.FormPatch) (*domain.Session, error)
	Advance(ctx context.Context, viewer domain.Viewer, id string) (*domain.Session, error)
	Back(ctx context.Context, id string) (*domain.Session, error)
	Navigate(ctx context.Context, id, location string) (*domain.Session, error)
	Share(ctx context.Context, id string) (domain.ShareDecision, error)
	Unmount(ctx context.Context, id string) error
	Subscribe(id string) (<-chan *domain.SessionDiff, func())
}

// Response is returned by every session operation.
type Response struct {
	SessionID string      `json:"session_id"`
	View      domain.View `json:"view"`
}

// ErrorBody is the JSON error shape. View is set when the session still
// exists, so the client can keep rendering it.
type ErrorBody struct {
	Error  string             `json:"error"`
	Fields domain.FieldErrors `json:"fields,omitempty"`
	View   *domain.View       `json:"view,omitempty"`
}

// Server serves the funnel.
type Server struct {
	engine   Engine
	auth     *Authenticator
	limiter  *RateLimiter
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithAuthenticator sets how viewers are extracted. Defaults to opaque
// bearer tokens.
func WithAuthenticator(a *Authenticator) Option {
	return func(s *Server) {
		s.auth = a
	}
}

// WithRateLimiter enables per-IP rate limiting.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.limiter = rl
	}
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		auth:   NewAuthenticator(nil),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.health)
	r.Get("/info", s.info)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Use(s.auth.Middleware)

		r.Post("/review/{campaignID}", s.mount)
		r.Get("/review/{campaignID}", s.location)
		r.Get("/review/{campaignID}/*", s.location)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.view)
			r.Delete("/", s.unmount)
			r.Patch("/form", s.update)
			r.Post("/advance", s.advance)
			r.Post("/back", s.back)
			r.Get("/share", s.share)
			r.Get("/events", s.events)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Funnel-Session")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "funnel-http",
		"version": strings.TrimSpace(funnel.Version),
	})
}

// mount opens a fresh session for the campaign.
func (s *Server) mount(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Mount(r.Context(), ViewerFrom(r.Context()), campaignParam(r))
	if err != nil {
		s.fail(w, r, "", err)
		return
	}
	setSessionCookie(w, sess.ID)
	w.Header().Set("Location", sess.Location)
	s.respond(w, r, http.StatusCreated, sess.ID)
}

// location follows an address-bar visit. The session named by the cookie
// is resumed when it belongs to the campaign; otherwise a new one is
// mounted. Non-canonical addresses are redirected.
func (s *Server) location(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID := campaignParam(r)

	var sess *domain.Session
	if id := sessionID(r); id != "" {
		if existing, err := s.engine.Session(ctx, id); err == nil && existing.CampaignID == campaignID {
			sess = existing
		}
	}
	if sess == nil {
		mounted, err := s.engine.Mount(ctx, ViewerFrom(ctx), campaignID)
		if err != nil {
			s.fail(w, r, "", err)
			return
		}
		setSessionCookie(w, mounted.ID)
		sess = mounted
	}

	moved, err := s.engine.Navigate(ctx, sess.ID, r.URL.EscapedPath())
	if err != nil {
		s.fail(w, r, sess.ID, err)
		return
	}
	if moved.Location != r.URL.EscapedPath() {
		http.Redirect(w, r, moved.Location, http.StatusFound)
		return
	}
	s.respond(w, r, http.StatusOK, moved.ID)
}

// campaignParam returns the decoded campaign id. chi matches on the raw path
// when the request carries escapes such as %2F, leaving the param escaped.
func campaignParam(r *http.Request) string {
	id := chi.URLParam(r, "campaignID")
	if r.URL.RawPath == "" {
		return id
	}
	if decoded, err := url.PathUnescape(id); err == nil {
		return decoded
	}
	return id
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, chi.URLParam(r, "sessionID"))
}

func (s *Server) unmount(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Unmount(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "invalid request body"})
		return
	}
	patch, err := dto.DecodePatch(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error()})
		return
	}
	if _, err := s.engine.Update(r.Context(), id, patch); err != nil {
		s.fail(w, r, id, err)
		return
	}
	s.respond(w, r, http.StatusOK, id)
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.engine.Advance(r.Context(), ViewerFrom(r.Context()), id); err != nil {
		s.fail(w, r, id, err)
		return
	}
	s.respond(w, r, http.StatusOK, id)
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.engine.Back(r.Context(), id); err != nil {
		s.fail(w, r, id, err)
		return
	}
	s.respond(w, r, http.StatusOK, id)
}

func (s *Server) share(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	decision, err := s.engine.Share(r.Context(), id)
	if err != nil {
		s.fail(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// events streams session diffs as server-sent events. The optional watch
// query (comma separated: step, form, phase, submission) filters diffs.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.engine.Session(r.Context(), id); err != nil {
		s.fail(w, r, "", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: "streaming not supported"})
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}

	ch, cancel := s.engine.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "session_id", id)
			return
		case diff, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", id)
				flusher.Flush()
				return
			}
			if !matches(diff, watch) {
				continue
			}
			data, err := json.Marshal(diff)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func matches(diff *domain.SessionDiff, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "step":
			if diff.CurrentStep != nil || diff.Location != nil {
				return true
			}
		case "form":
			if len(diff.Form) > 0 {
				return true
			}
		case "phase":
			if diff.Phase != nil {
				return true
			}
		case "submission":
			if diff.Submitting != nil || diff.SubmissionError != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, id string) {
	view, err := s.engine.View(r.Context(), id)
	if err != nil {
		s.fail(w, r, "", err)
		return
	}
	writeJSON(w, status, Response{SessionID: id, View: view})
}

// fail maps engine errors onto status codes. When id is set and the
// session is still readable, its view is attached.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, id string, err error) {
	status := statusFor(err)
	body := ErrorBody{Error: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Error = "validation failed"
		body.Fields = verr.Fields
	}
	if errors.Is(err, domain.ErrSubmission) {
		body.Error = "submission failed"
	}
	if errors.Is(err, domain.ErrResolution) {
		body.Error = "campaign unavailable"
	}

	if id != "" {
		if view, verr := s.engine.View(r.Context(), id); verr == nil {
			body.View = &view
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionFailed):
		return http.StatusGone
	case errors.Is(err, domain.ErrSubmission), errors.Is(err, domain.ErrResolution):
		return http.StatusBadGateway
	case errors.Is(err, runtime.ErrForeignLocation),
		errors.Is(err, funnel.ErrMissingCampaign),
		errors.Is(err, validation.ErrInputTooLarge),
		errors.Is(err, validation.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Funnel-Session"); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
