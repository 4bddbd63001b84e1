// Package httpapi serves a KittenTTS engine over HTTP and WebSocket.
//
// Routes:
//
//	GET  /healthz        engine state, 503 until the engine is ready
//	GET  /v1/voices      available voices and the default voice
//	POST /v1/synthesize  JSON request in, audio/wav out
//	GET  /v1/ws          WebSocket; JSON request frames in, binary WAV
//	                     frames out, JSON error frames on failure
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xih/designer-search-sub000/pkg/kitten"
)

// DefaultMaxTextLength bounds the text of one request, in bytes.
const DefaultMaxTextLength = 4096

// Engine is the part of *kitten.Engine the server uses.
type Engine interface {
	State() kitten.State
	IsReady() bool
	Voices() []string
	DefaultVoice() string
	Synthesize(ctx context.Context, text, voice string, speed float32) (*kitten.Utterance, error)
	Encode(u *kitten.Utterance) []byte
}

var _ Engine = (*kitten.Engine)(nil)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access and error records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxTextLength sets the largest accepted text, in bytes.
func WithMaxTextLength(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxText = n
		}
	}
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine  Engine
	logger  *slog.Logger
	maxText int
	router  chi.Router
}

// New creates a Server for engine.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		logger:  slog.Default(),
		maxText: DefaultMaxTextLength,
	}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/voices", s.voices)
		r.Post("/synthesize", s.synthesize)
		r.Get("/ws", s.websocket)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("httpapi: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// SynthesizeRequest is the body of POST /v1/synthesize and of a WebSocket
// request frame.
type SynthesizeRequest struct {
	// ID is echoed in WebSocket error frames.
	ID    string  `json:"id,omitempty"`
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Speed float32 `json:"speed,omitempty"`

	// SampleRate resamples the output. Zero keeps the model rate.
	SampleRate int `json:"sample_rate,omitempty"`
}

// ErrorResponse is the JSON error body, also sent as a WebSocket error
// frame.
type ErrorResponse struct {
	ID    string `json:"id,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// VoicesResponse is the body of GET /v1/voices.
type VoicesResponse struct {
	Default string   `json:"default"`
	Voices  []string `json:"voices"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

var errBadRequest = errors.New("bad request")

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	state := s.engine.State()
	if !s.engine.IsReady() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", State: state.String()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", State: state.String()})
}

func (s *Server) voices(w http.ResponseWriter, r *http.Request) {
	if !s.engine.IsReady() {
		s.writeError(w, r, "", kitten.ErrNotInitialized)
		return
	}
	writeJSON(w, http.StatusOK, VoicesResponse{
		Default: s.engine.DefaultVoice(),
		Voices:  s.engine.Voices(),
	})
}

func (s *Server) synthesize(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(s.maxText)*2+1024))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, "", fmt.Errorf("%w: decode body: %v", errBadRequest, err))
		return
	}
	u, data, err := s.run(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, req.ID, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "audio/wav")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Request-ID", u.ID)
	h.Set("X-Voice", u.Voice)
	h.Set("X-Sample-Rate", strconv.Itoa(u.SampleRate))
	if u.Fallback {
		h.Set("X-Fallback", "true")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// run validates req and synthesizes it into a WAV container.
func (s *Server) run(ctx context.Context, req *SynthesizeRequest) (*kitten.Utterance, []byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, nil, fmt.Errorf("%w: text is required", errBadRequest)
	}
	if len(req.Text) > s.maxText {
		return nil, nil, fmt.Errorf("%w: text longer than %d bytes", errBadRequest, s.maxText)
	}
	if req.SampleRate < 0 {
		return nil, nil, fmt.Errorf("%w: negative sample_rate", errBadRequest)
	}

	u, err := s.engine.Synthesize(ctx, req.Text, req.Voice, req.Speed)
	if err != nil {
		return nil, nil, err
	}
	if req.SampleRate > 0 && req.SampleRate != u.SampleRate {
		if u, err = u.Resample(req.SampleRate); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	return u, s.engine.Encode(u), nil
}

// classify maps an error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, kitten.ErrInvalidSpeed):
		return http.StatusBadRequest, "invalid_speed"
	case errors.Is(err, kitten.ErrUnknownVoice):
		return http.StatusNotFound, "unknown_voice"
	case errors.Is(err, kitten.ErrPhonemization):
		return http.StatusUnprocessableEntity, "phonemization"
	case errors.Is(err, kitten.ErrNotInitialized), errors.Is(err, kitten.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, id string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && code != "unavailable" {
		s.logger.Error("httpapi: synthesis failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	writeJSON(w, status, ErrorResponse{ID: id, Code: code, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
