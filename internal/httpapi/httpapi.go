package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"posales/backend/internal/domain"
	"posales/backend/internal/order"
	"posales/backend/internal/provider"
	"posales/backend/internal/service"
)

type API struct {
	service       *service.Service
	tokens        *SessionTokens
	metrics       http.Handler
	allowedOrigin string
	openLimiter   *windowLimiter
	submitLimiter *windowLimiter
}

// New wires the routes. metrics may be nil to leave /metrics unmounted.
func New(svc *service.Service, tokens *SessionTokens, metrics http.Handler, allowedOrigin string) *API {
	return &API{
		service:       svc,
		tokens:        tokens,
		metrics:       metrics,
		allowedOrigin: allowedOrigin,
		openLimiter:   newWindowLimiter(30, time.Minute),
		submitLimiter: newWindowLimiter(10, time.Minute),
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics)
	}
	mux.HandleFunc("/api/v1/sessions", a.handleOpenSession)

	mux.HandleFunc("/api/v1/session", a.requireSession(a.handleSession))
	mux.HandleFunc("/api/v1/session/reload", a.requireSession(a.handleReload))
	mux.HandleFunc("/api/v1/session/directory", a.requireSession(a.handleDirectory))
	mux.HandleFunc("/api/v1/session/products", a.requireSession(a.handleSearch))
	mux.HandleFunc("/api/v1/session/header", a.requireSession(a.handleHeader))
	mux.HandleFunc("/api/v1/session/lines", a.requireSession(a.handleLines))
	mux.HandleFunc("/api/v1/session/lines/", a.requireSession(a.handleLineActions))
	mux.HandleFunc("/api/v1/session/reset", a.requireSession(a.handleReset))
	mux.HandleFunc("/api/v1/session/submit", a.requireSession(a.handleSubmit))

	return a.withMiddleware(mux)
}

type sessionContextKey struct{}

func sessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey{}).(string)
	return id
}

func (a *API) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		sessionID, err := a.tokens.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sessionID)))
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"sessions": a.service.SessionCount(),
		"at":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.openLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many sessions opened"))
		return
	}

	view, err := a.service.OpenSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	token, _, err := a.tokens.Issue(view.SessionID)
	if err != nil {
		a.service.CloseSession(r.Context(), view.SessionID)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, domain.SessionOpenResponse{Token: token, Session: view})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	id := sessionFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		view, err := a.service.View(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		a.service.CloseSession(r.Context(), id)
		a.submitLimiter.Forget(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	view, err := a.service.ReloadData(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleDirectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	dir, err := a.service.Directory(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dir)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	query := r.URL.Query().Get("q")
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 0, 0)

	resp, err := a.service.Search(r.Context(), sessionFromContext(r.Context()), query, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleHeader(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.HeaderUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.UpdateHeader(r.Context(), sessionFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.AddLine(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleLineActions(w http.ResponseWriter, r *http.Request) {
	lineID := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/session/lines/"), "/"))
	if lineID == "" {
		writeError(w, http.StatusBadRequest, errors.New("line id required"))
		return
	}
	id := sessionFromContext(r.Context())

	switch r.Method {
	case http.MethodPatch:
		var req domain.LineUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.UpdateLine(r.Context(), id, lineID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodDelete:
		view, err := a.service.RemoveLine(r.Context(), id, lineID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	view, err := a.service.Reset(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	id := sessionFromContext(r.Context())
	if !a.submitLimiter.Allow(id) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many submissions, try again shortly"))
		return
	}
	resp, err := a.service.Submit(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// writeServiceError maps service, order and provider errors onto statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, order.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, provider.ErrInsufficientStock):
		writeError(w, http.StatusConflict, errors.New(service.PublicMessage(err)))
	case errors.Is(err, provider.ErrRejected):
		writeError(w, http.StatusUnprocessableEntity, errors.New(service.PublicMessage(err)))
	case errors.Is(err, provider.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies never carry the underlying error; it is logged instead.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = strings.ToLower(http.StatusText(status))
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
