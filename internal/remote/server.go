package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/san-kum/solarsim/internal/solar"
)

const maxBodyBytes = 1 << 20

type Options struct {
	// CORSOrigins defaults to "*".
	CORSOrigins []string
	// AccessLog receives one Apache-style line per request when set.
	AccessLog io.Writer
}

// Server serves the control endpoint, the field views and the telemetry
// socket.
type Server struct {
	fields FieldAccess
	hub    *Hub
	rpc    *Dispatcher
	log    *slog.Logger
	opts   Options
}

// NewServer builds a server over fields. hub may be nil, in which case
// /ws is not routed and writes are not broadcast.
func NewServer(fields FieldAccess, hub *Hub, log *slog.Logger, opts Options) *Server {
	if log == nil {
		log = slog.Default()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{fields: fields, hub: hub, log: log, opts: opts}
	var onChange func(solar.Change)
	if hub != nil {
		onChange = hub.FieldChanged
	}
	s.rpc = NewDispatcher(fields, onChange)
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRPC).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/fields", s.listFields).Methods(http.MethodGet)
	r.HandleFunc("/fields/{name}", s.getField).Methods(http.MethodGet)
	r.HandleFunc("/fields/{name}", s.putField).Methods(http.MethodPut)
	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.HandleWebSocket).Methods(http.MethodGet)
	}

	return r
}

// Handler returns the router wrapped with CORS and access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
	)(h)
	if s.opts.AccessLog != nil {
		h = handlers.LoggingHandler(s.opts.AccessLog, h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("remote endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("remote endpoint shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, Response{
			JSONRPC: Version,
			ID:      json.RawMessage("null"),
			Error:   &Error{Code: CodeParseError, Message: "Parse error"},
		})
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, Response{
			JSONRPC: Version,
			ID:      json.RawMessage("null"),
			Error:   &Error{Code: CodeParseError, Message: "Parse error"},
		})
		return
	}
	if req.Method == "" {
		id := req.ID
		if id == nil {
			id = json.RawMessage("null")
		}
		writeJSON(w, http.StatusOK, Response{
			JSONRPC: Version,
			ID:      id,
			Error:   &Error{Code: CodeInvalidRequest, Message: "Invalid Request"},
		})
		return
	}

	resp := s.rpc.Dispatch(req)
	if resp.Error != nil {
		s.log.Warn("rpc request failed", "method", req.Method, "code", resp.Error.Code, "message", resp.Error.Message)
	} else if req.Method == MethodUpdateField {
		s.log.Info("rpc field update", "result", resp.Result)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	fields := s.fields.Fields()
	if fields == nil {
		fields = []solar.Snapshot{}
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) getField(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	f, ok := s.fields.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown field: " + name})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type putFieldRequest struct {
	Value *float32 `json:"value"`
}

func (s *Server) putField(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req putFieldRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"value\": <number>}"})
		return
	}

	change, err := s.fields.Set(name, *req.Value)
	switch {
	case errors.Is(err, solar.ErrUnknownField):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, solar.ErrReadOnlyField):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if s.hub != nil {
		s.hub.FieldChanged(change)
	}
	s.log.Info("field update", "result", UpdateMessage(change))
	writeJSON(w, http.StatusOK, change)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
