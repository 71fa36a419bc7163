// Package web serves the chat page and the JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/easeaico/senior-acido/internal/chat"
	"github.com/easeaico/senior-acido/internal/observability"
	"github.com/easeaico/senior-acido/internal/session"
	"github.com/easeaico/senior-acido/internal/types"
)

const (
	cookieName    = "senior_acido_session"
	sessionHeader = "X-Session-ID"
	// maxUpload bounds the multipart form and the JSON body.
	maxUpload = 10 << 20
)

// Turns runs chat turns and bulk memory operations.
type Turns interface {
	HandleTurn(ctx context.Context, sess *session.Session, in chat.Input) (chat.Reply, error)
	ForgetCasual(ctx context.Context, userID string) (int64, error)
}

// Pinger reports datastore health.
type Pinger interface {
	Ping(ctx context.Context) error
	Persistent() bool
}

type Server struct {
	turns    Turns
	sessions *session.Manager
	store    Pinger
	metrics  *observability.Metrics
	userID   string
}

func New(turns Turns, sessions *session.Manager, store Pinger, metrics *observability.Metrics, userID string) *Server {
	return &Server{
		turns:    turns,
		sessions: sessions,
		store:    store,
		metrics:  metrics,
		userID:   userID,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/chat", s.handleChatForm)
	r.Post("/session/reset", s.handleResetForm)
	r.Post("/memory/forget-casual", s.handleForgetForm)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChatAPI)
		r.Get("/session", s.handleGetSession)
		r.Delete("/session", s.handleDeleteSession)
		r.Post("/memory/forget-casual", s.handleForgetAPI)
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	data := pageData{
		Turns:      sess.Turns(),
		Forgotten:  r.URL.Query().Get("esquecidas"),
		Error:      r.URL.Query().Get("erro"),
		Persistent: s.store != nil && s.store.Persistent(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error("failed to render page", "error", err)
	}
}

func (s *Server) handleChatForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		redirectWithError(w, r, "não consegui ler o formulário")
		return
	}

	in := chat.Input{Message: r.FormValue("message"), ClientIP: clientIP(r)}
	if file, header, err := r.FormFile("file"); err == nil {
		data, readErr := io.ReadAll(file)
		_ = file.Close()
		if readErr != nil {
			redirectWithError(w, r, "não consegui ler o arquivo")
			return
		}
		in.Attachment = &types.Attachment{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	if _, err := s.turns.HandleTurn(r.Context(), sess, in); err != nil && !errors.Is(err, chat.ErrEmptyInput) {
		slog.Error("turn failed", "session_id", sess.ID, "error", err)
		redirectWithError(w, r, "falha ao processar a mensagem")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.resetSession(sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleForgetForm(w http.ResponseWriter, r *http.Request) {
	n, err := s.turns.ForgetCasual(r.Context(), s.userID)
	if err != nil {
		slog.Error("forget casual failed", "error", err)
		redirectWithError(w, r, "não consegui apagar as conversas casuais")
		return
	}
	http.Redirect(w, r, "/?esquecidas="+strconv.FormatInt(n, 10), http.StatusSeeOther)
}

type chatRequest struct {
	Message    string            `json:"message"`
	Attachment *types.Attachment `json:"attachment,omitempty"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	chat.Reply
}

type sessionResponse struct {
	SessionID string       `json:"session_id"`
	CreatedAt time.Time    `json:"created_at"`
	Turns     []types.Turn `json:"turns"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleChatAPI(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	reply, err := s.turns.HandleTurn(r.Context(), sess, chat.Input{
		Message:    req.Message,
		Attachment: req.Attachment,
		ClientIP:   clientIP(r),
	})
	if errors.Is(err, chat.ErrEmptyInput) {
		respondError(w, http.StatusBadRequest, "empty_message", err.Error())
		return
	}
	if err != nil {
		slog.Error("turn failed", "session_id", sess.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{SessionID: sess.ID, Reply: reply})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	turns := sess.Turns()
	if turns == nil {
		turns = []types.Turn{}
	}
	respondJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, CreatedAt: sess.CreatedAt, Turns: turns})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.resetSession(sess)
	w.WriteHeader(http.StatusNoContent)
}

// resetSession clears sess once any turn it is running has finished.
func (s *Server) resetSession(sess *session.Session) {
	if err := s.sessions.Reset(sess.ID); err != nil {
		slog.Warn("session reset failed", "session_id", sess.ID, "error", err)
		return
	}
	slog.Info("session reset", "session_id", sess.ID)
}

func (s *Server) handleForgetAPI(w http.ResponseWriter, r *http.Request) {
	n, err := s.turns.ForgetCasual(r.Context(), s.userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "forget_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	storeMode := "in-memory"
	if s.store != nil && s.store.Persistent() {
		storeMode = "postgres"
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			slog.Warn("health check: store unreachable", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	respondJSON(w, code, map[string]any{
		"status":   status,
		"store":    storeMode,
		"sessions": s.sessions.Count(),
	})
}

// session resolves the caller's session from the header or cookie, creating one when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := strings.TrimSpace(r.Header.Get(sessionHeader))
	if id == "" {
		if c, err := r.Cookie(cookieName); err == nil {
			id = c.Value
		}
	}

	sess, created := s.sessions.GetOrCreate(id)
	if created || id != sess.ID {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		s.metrics.SetActiveSessions(s.sessions.Count())
	}
	w.Header().Set(sessionHeader, sess.ID)
	return sess
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?erro="+url.QueryEscape(msg), http.StatusSeeOther)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
