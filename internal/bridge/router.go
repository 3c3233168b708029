package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/storage"
)

const maxCallBody = 1 << 20

type RouterDeps struct {
	Handlers    Handlers
	Alarms      *alarm.Service
	Items       alarm.ItemGetter
	Events      http.Handler
	Ready       func(ctx context.Context) error
	AuthEnabled bool
	Token       string
	Now         func() time.Time
	Logger      *slog.Logger
}

type server struct {
	deps RouterDeps
}

// NewRouter mounts the call bridge, the alarm listing, item previews and the
// event stream under /api, and the health probes at the root.
func NewRouter(d RouterDeps) chi.Router {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	s := &server{deps: d}

	r := chi.NewRouter()
	r.Get("/health/live", s.live)
	r.Get("/health/ready", s.ready)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(d.AuthEnabled, d.Token))
		r.Post("/call", s.call)
		r.Get("/alarms", s.alarms)
		r.Get("/items/{id}/preview", s.preview)
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})
	return r
}

func (s *server) call(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallBody))
	if err != nil {
		writeError(w, &CallError{Code: ErrCodeInvalidArgument, Message: "request body too large or unreadable"})
		return
	}
	c, err := Parse(body)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := Execute(r.Context(), c, s.deps.Handlers)
	if err != nil {
		s.deps.Logger.Warn("bridge: call failed", slog.String("method", c.Method), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultBody{Result: res})
}

func (s *server) alarms(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Alarms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("alarms unavailable", ErrCodeHandlerMissing))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Alarms.Pending())
}

func (s *server) preview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid item id", ErrCodeInvalidArgument))
		return
	}
	count := alarm.DefaultPreviewCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, errorBody("count must be 1..100", ErrCodeInvalidArgument))
			return
		}
		count = n
	}
	p, err := alarm.PreviewItem(r.Context(), s.deps.Items, id, s.deps.Now(), count)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("item not found", ErrCodeInvalidArgument))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error(), ErrCodeFailed))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) ready(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// AuthMiddleware enforces "Authorization: Bearer <token>" when enabled.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", ""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type resultBody struct {
	Result any `json:"result"`
}

type errResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code,omitempty"`
}

func errorBody(msg string, code ErrorCode) errResponse {
	return errResponse{Error: msg, Code: code}
}

func writeError(w http.ResponseWriter, err error) {
	var ce *CallError
	if !errors.As(err, &ce) {
		ce = &CallError{Code: ErrCodeFailed, Message: err.Error()}
	}
	writeJSON(w, statusFor(ce.Code), errorBody(ce.Message, ce.Code))
}

func statusFor(code ErrorCode) int {
	switch code {
	case ErrCodeEmptyInput, ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeUnknownMethod:
		return http.StatusNotFound
	case ErrCodeHandlerMissing:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}
