package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/treetagger/internal/logging"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// MaxBodyBytes bounds the size of a tagging request.
const MaxBodyBytes = 4 << 20

// Tagger defines what the service needs from the tagging facade.
type Tagger interface {
	Tag(ctx context.Context, tokens []string) ([]domain.TaggedToken, error)
	TagText(ctx context.Context, text, lang string) ([]domain.TaggedToken, error)
	State() process.State
	Model() (model.Descriptor, bool)
	Restart(ctx context.Context) error
}

// TagRequest is the body of POST /tag. Exactly one of Tokens or Text is used;
// Tokens wins when both are set.
type TagRequest struct {
	Tokens []string `json:"tokens,omitempty"`
	Text   string   `json:"text,omitempty"`
	Lang   string   `json:"lang,omitempty"`
}

// TagResponse is the body of a successful POST /tag.
type TagResponse struct {
	Model   string               `json:"model"`
	Results []domain.TaggedToken `json:"results"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Server exposes a Tagger over HTTP. The engine runs one batch at a time,
// so requests are queued behind a mutex.
type Server struct {
	tagger   Tagger
	version  string
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
	timeout  time.Duration
	logger   *slog.Logger

	mu sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimit admits at most rps tagging requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRequestTimeout bounds how long a request may wait for its batch.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server for t.
func NewServer(t Tagger, opts ...Option) *Server {
	s := &Server{
		tagger:   t,
		version:  "dev",
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Post("/tag", s.Tag)
	r.Get("/healthz", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// NewHandler is a shortcut for NewServer(t, opts...).Handler().
func NewHandler(t Tagger, opts ...Option) http.Handler {
	return NewServer(t, opts...).Handler()
}

type ctxKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func idFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Tag handles the POST /tag request.
func (s *Server) Tag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := idFrom(ctx)

	if s.limiter != nil && !s.limiter.Allow() {
		s.fail(w, id, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
		return
	}

	var body TagRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&body); err != nil {
		s.logger.Warn("Tag: Invalid request body", "request_id", id, "err", err)
		s.fail(w, id, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Tokens == nil && strings.TrimSpace(body.Text) == "" {
		s.fail(w, id, http.StatusBadRequest, errors.New("either tokens or text is required"))
		return
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.tag(ctx, body)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Tag failed", "request_id", id, "err", err)
		}
		s.fail(w, id, status, err)
		return
	}

	d, _ := s.tagger.Model()
	writeJSON(w, s.logger, http.StatusOK, TagResponse{Model: d.Name, Results: results})
}

func (s *Server) tag(ctx context.Context, body TagRequest) ([]domain.TaggedToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// A failed session is replaced before the next request uses it.
	if s.tagger.State() == process.Failed {
		s.logger.Info("restarting failed engine")
		if err := s.tagger.Restart(ctx); err != nil {
			return nil, err
		}
	}

	if body.Tokens != nil {
		return s.tagger.Tag(ctx, body.Tokens)
	}
	lang := body.Lang
	if lang == "" {
		lang = "en"
	}
	return s.tagger.TagText(ctx, body.Text, lang)
}

// Health handles the GET /healthz request.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	state := s.tagger.State()
	resp := map[string]string{
		"status":  "ok",
		"state":   state.String(),
		"version": s.version,
	}
	if d, ok := s.tagger.Model(); ok {
		resp["model"] = d.Name
	}
	status := http.StatusOK
	if state == process.Failed {
		resp["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, s.logger, status, resp)
}

func (s *Server) fail(w http.ResponseWriter, id string, status int, err error) {
	writeJSON(w, s.logger, status, errorResponse{Error: err.Error(), RequestID: id})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConcurrentUsage):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrProtocol):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNoModel),
		errors.Is(err, domain.ErrStartFailure),
		errors.Is(err, domain.ErrSessionFailed),
		errors.Is(err, domain.ErrSessionTerminated):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
