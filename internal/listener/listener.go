// Package listener exposes the filtering engine over a small HTTP API.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/objfilter/objfilter/internal/filter"
	"github.com/objfilter/objfilter/internal/runtime"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Listener struct {
	address      string
	passwordHash string
	filters      *runtime.Filters
	logger       *zap.SugaredLogger
	mux          http.ServeMux
}

// NewListener returns a Listener serving the classification API on address.
// When passwordHash is a non-empty bcrypt hash, requests must carry HTTP
// basic auth credentials matching it.
func NewListener(address, passwordHash string, filters *runtime.Filters, logger *zap.SugaredLogger) *Listener {
	l := &Listener{
		address:      address,
		passwordHash: passwordHash,
		filters:      filters,
		logger:       logger,
	}
	l.mux.HandleFunc("/classify", l.Classify)
	l.mux.HandleFunc("/evaluate", l.Evaluate)
	return l
}

// Run starts the HTTP listener and blocks until ctx is canceled or the
// server fails.
func (l *Listener) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    l.address,
		Handler: &l.mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	l.logger.Infof("Starting listener on http://%s", l.address)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// classifyRequest carries the object to run the loaded filter list against.
type classifyRequest struct {
	Object map[string]any `json:"object"`
}

// evaluateRequest carries an object and an inline filter definition.
type evaluateRequest struct {
	Object map[string]any `json:"object"`
	Filter map[string]any `json:"filter"`
}

// Classify handles POST /classify: it evaluates the loaded filter list
// against the submitted object and responds with the name of the first
// matching filter, or 404 when the object passes none.
func (l *Listener) Classify(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req classifyRequest
	if !l.decodeRequest(w, r, requestID, &req) {
		return
	}

	name, err := l.filters.Classify(req.Object)
	switch {
	case errors.Is(err, filter.ErrNoMatch):
		l.respond(w, http.StatusNotFound, map[string]any{"request_id": requestID, "match": false})
	case err != nil:
		l.logger.Errorw("cannot classify object", zap.String("request_id", requestID), zap.Error(err))
		l.respond(w, http.StatusUnprocessableEntity, map[string]any{"request_id": requestID, "error": err.Error()})
	default:
		l.logger.Debugw("classified object", zap.String("request_id", requestID), zap.String("filter", name))
		l.respond(w, http.StatusOK, map[string]any{"request_id": requestID, "match": true, "filter": name})
	}
}

// Evaluate handles POST /evaluate: it runs a single inline filter definition
// against the submitted object and responds with the boolean result. The
// definition is sanitized before use, it arrives from outside.
func (l *Listener) Evaluate(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req evaluateRequest
	if !l.decodeRequest(w, r, requestID, &req) {
		return
	}

	result, err := filter.ExecuteFilter(req.Object, req.Filter, true)
	if err != nil {
		l.logger.Debugw("cannot evaluate filter", zap.String("request_id", requestID), zap.Error(err))
		l.respond(w, http.StatusUnprocessableEntity, map[string]any{"request_id": requestID, "error": err.Error()})
		return
	}

	l.respond(w, http.StatusOK, map[string]any{"request_id": requestID, "result": result})
}

// decodeRequest enforces method, auth and body shape. It writes the error
// response itself and reports whether the handler should proceed.
func (l *Listener) decodeRequest(w http.ResponseWriter, r *http.Request, requestID string, into any) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = fmt.Fprintln(w, "POST required")
		return false
	}

	if !l.authenticated(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="objfilter"`)
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		l.respond(w, http.StatusBadRequest, map[string]any{
			"request_id": requestID,
			"error":      fmt.Sprintf("cannot parse JSON body: %v", err),
		})
		return false
	}

	return true
}

func (l *Listener) authenticated(r *http.Request) bool {
	if l.passwordHash == "" {
		return true
	}

	_, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(l.passwordHash), []byte(pass)) == nil
}

func (l *Listener) respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.logger.Errorw("cannot encode response", zap.Error(err))
	}
}
