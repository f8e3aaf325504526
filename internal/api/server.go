package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ajitpratap0/mdchat/internal/chapter"
	"github.com/ajitpratap0/mdchat/internal/chat"
	"github.com/ajitpratap0/mdchat/internal/editor"
	"github.com/ajitpratap0/mdchat/internal/heading"
	"github.com/ajitpratap0/mdchat/internal/models"
)

// maxBodyBytes caps request bodies; documents travel inline.
const maxBodyBytes = 4 << 20

// Runner is the part of *chat.Runner the server needs.
type Runner interface {
	Preview(text string, cursorLine int) (*chapter.Conversation, error)
	Run(ctx context.Context, req chat.Request, buf editor.Buffer) (*chat.Result, error)
}

// Server is an HTTP API server that exposes the chat pipeline over documents
// sent inline as text.
type Server struct {
	runner       Runner
	defaultModel string
	logger       *slog.Logger
	authToken    string // empty = no auth required
}

// NewServer creates a new Server. defaultModel is used when a chat request
// names none.
func NewServer(runner Runner, defaultModel string, logger *slog.Logger, authToken string) *Server {
	return &Server{
		runner:       runner,
		defaultModel: defaultModel,
		logger:       logger,
		authToken:    authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check, no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /v1/headings", s.auth(s.handleHeadings))
	mux.HandleFunc("POST /v1/turns", s.auth(s.handleTurns))
	mux.HandleFunc("POST /v1/chat", s.auth(s.handleChat))
	mux.Handle("GET /debug/vars", s.auth(expvar.Handler().ServeHTTP))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// documentRequest is the body accepted by the document endpoints.
type documentRequest struct {
	Text       string `json:"text"`
	CursorLine int    `json:"cursor_line"`
	Model      string `json:"model"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (documentRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.CursorLine < 0 {
		s.writeError(w, http.StatusBadRequest, "cursor_line must be >= 0")
		return req, false
	}
	return req, true
}

// headingsResponse is returned by POST /v1/headings.
type headingsResponse struct {
	Headings []models.Heading `json:"headings"`
}

func (s *Server) handleHeadings(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	heads := heading.Extract(req.Text)
	if heads == nil {
		heads = []models.Heading{}
	}
	s.writeJSON(w, http.StatusOK, headingsResponse{Headings: heads})
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	conv, err := s.runner.Preview(req.Text, req.CursorLine)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

// chatResponse is returned by POST /v1/chat, also alongside a stream failure.
type chatResponse struct {
	*chat.Result
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	if req.Model == "" {
		req.Model = s.defaultModel
	}
	if req.Model == "" {
		s.writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	doc := editor.NewDocument(req.Text)
	res, err := s.runner.Run(r.Context(), chat.Request{
		CursorLine: req.CursorLine,
		Model:      req.Model,
	}, doc)
	if err != nil && res == nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	resp := chatResponse{Result: res, Text: doc.Text()}
	status := http.StatusOK
	if err != nil {
		s.logger.Error("chat request failed", "error", err)
		resp.Error = err.Error()
		status = statusFor(err)
	}
	s.writeJSON(w, status, resp)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var se *chat.StreamError
	switch {
	case errors.Is(err, chat.ErrNoChapter), errors.Is(err, chat.ErrNoTurns), errors.Is(err, chat.ErrSegmentMismatch):
		return http.StatusUnprocessableEntity
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// --- helpers ---

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
