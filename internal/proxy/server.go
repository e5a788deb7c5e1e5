// Package proxy runs the workspace relay: a single HTTP endpoint that keeps
// the workspace credentials on the server and exposes four actions selected
// with the "action" query parameter.
//
//	GET  ?action=getClients           -> {"clients": [...]}
//	POST ?action=createClient         -> {"success": true, "client": {...}}
//	POST ?action=saveInvoice          -> {"success": true, "invoiceId": "..."}
//	GET  ?action=proxyImage&url=<url> -> {"base64", "contentType", "dataUrl"}
//
// Failures are answered with {"error": "<message>"}: 400 for a bad request,
// 500 when the workspace or the image origin fails. Client implements
// workspace.Service on top of the same endpoint.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"invoicer/internal/imagerelay"
	"invoicer/internal/logger"
	"invoicer/internal/workspace"
	"invoicer/pkg/models"
)

// Action names accepted by the relay.
const (
	ActionGetClients   = "getClients"
	ActionCreateClient = "createClient"
	ActionSaveInvoice  = "saveInvoice"
	ActionProxyImage   = "proxyImage"
)

const (
	// DefaultPath is the route of the relay endpoint.
	DefaultPath = "/api/workspace"

	// RequestIDHeader carries the id assigned to every request.
	RequestIDHeader = "X-Request-Id"

	maxBodyBytes = 1 << 20

	msgInvalidAction = "Invalid action. Use: getClients, createClient, saveInvoice, or proxyImage"
	msgMissingURL    = "Missing url parameter"
)

// ImageFetcher relays a remote image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (imagerelay.Image, error)
}

// ClientsResponse is the body of getClients.
type ClientsResponse struct {
	Clients []models.ClientRecord `json:"clients"`
}

// CreateClientResponse is the body of createClient.
type CreateClientResponse struct {
	Success bool                `json:"success"`
	Client  models.ClientRecord `json:"client"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the relay HTTP server.
type Server struct {
	svc    workspace.Service
	images ImageFetcher
	path   string
	log    zerolog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithPath mounts the endpoint at path instead of DefaultPath.
func WithPath(path string) ServerOption {
	return func(s *Server) {
		if path != "" {
			s.path = path
		}
	}
}

// NewServer returns a relay serving svc and images.
func NewServer(svc workspace.Service, images ImageFetcher, opts ...ServerOption) *Server {
	s := &Server{
		svc:    svc,
		images: images,
		path:   DefaultPath,
		log:    logger.WithComponent("proxy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc(s.path, s.handleAction).
		Methods(http.MethodGet, http.MethodPost, http.MethodOptions)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	const op = "ListenAndServe"

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("path", s.path).Msg("Workspace relay listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
		s.log.Info().Msg("Shutting down workspace relay")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: shutdown failed: %w", op, err)
		}
		return nil
	}
}

type requestLoggerKey struct{}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		log := logger.WithRequestID(id).With().Str("component", "proxy").Logger()
		ctx := context.WithValue(r.Context(), requestLoggerKey{}, log)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("action", r.URL.Query().Get("action")).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) logFor(r *http.Request) zerolog.Logger {
	if log, ok := r.Context().Value(requestLoggerKey{}).(zerolog.Logger); ok {
		return log
	}
	return s.log
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	log := s.logFor(r)
	query := r.URL.Query()

	switch action := query.Get("action"); action {
	case ActionGetClients:
		clients, err := s.svc.ListClients(ctx)
		if err != nil {
			s.fail(w, log, action, err)
			return
		}
		if clients == nil {
			clients = []models.ClientRecord{}
		}
		writeJSON(w, http.StatusOK, ClientsResponse{Clients: clients})

	case ActionCreateClient:
		var record models.ClientRecord
		if err := decodeBody(r, &record); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		created, err := s.svc.CreateClient(ctx, record)
		if err != nil {
			s.fail(w, log, action, err)
			return
		}
		writeJSON(w, http.StatusOK, CreateClientResponse{Success: true, Client: created})

	case ActionSaveInvoice:
		var snapshot models.InvoiceSnapshot
		if err := decodeBody(r, &snapshot); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		result, err := s.svc.CreateInvoice(ctx, snapshot)
		if err != nil {
			s.fail(w, log, action, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case ActionProxyImage:
		imageURL := query.Get("url")
		if imageURL == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgMissingURL})
			return
		}
		img, err := s.images.Fetch(ctx, imageURL)
		if err != nil {
			s.fail(w, log, action, err)
			return
		}
		writeJSON(w, http.StatusOK, img)

	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidAction})
	}
}

func (s *Server) fail(w http.ResponseWriter, log zerolog.Logger, action string, err error) {
	log.Error().Err(err).Str("action", action).Msg("Workspace relay action failed")

	msg := err.Error()
	var reqErr *workspace.RequestError
	if errors.As(err, &reqErr) {
		msg = reqErr.Message
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
