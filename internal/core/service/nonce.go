package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/yndnr/textnonce-go/internal/core/domain"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
	"github.com/yndnr/textnonce-go/internal/telemetry/metric"
	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// Limits bounds what a single request may ask for.
type Limits struct {
	DefaultLength int // used when a request omits the length
	MaxLength     int
	MaxBatch      int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		DefaultLength: nonce.DefaultLength,
		MaxLength:     1024,
		MaxBatch:      1000,
	}
}

// IssueRequest asks for Count nonces of Length characters.
//
// A zero Length or Count means the caller omitted it, and the default length
// or a single nonce is used. Transports that can tell an explicit zero from
// an omitted value set LengthSet or CountSet, and the zero is then rejected.
type IssueRequest struct {
	Length    int
	Count     int
	LengthSet bool
	CountSet  bool
}

// IssueResponse is the result of a successful Issue.
type IssueResponse struct {
	Batch *domain.Batch
}

// ServiceStats is a snapshot for the status endpoints.
type ServiceStats struct {
	NoncesIssued uint64
	Batches      uint64
	Rejected     uint64
	Guard        nonce.GuardStats
	StartedAt    time.Time
	Uptime       time.Duration
}

// NonceService issues nonces in batches.
type NonceService struct {
	gen     *nonce.Generator
	limits  Limits
	metrics *metric.Registry
	log     logger.Logger
	started time.Time

	issued   atomic.Uint64
	batches  atomic.Uint64
	rejected atomic.Uint64
}

// NonceServiceOption configures a NonceService.
type NonceServiceOption func(*NonceService)

// WithMetrics records issuance metrics into r.
func WithMetrics(r *metric.Registry) NonceServiceOption {
	return func(s *NonceService) { s.metrics = r }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) NonceServiceOption {
	return func(s *NonceService) { s.log = l }
}

// NewNonceService creates a NonceService. Zero limit fields take their
// defaults.
func NewNonceService(gen *nonce.Generator, limits Limits, opts ...NonceServiceOption) *NonceService {
	def := DefaultLimits()
	if limits.DefaultLength == 0 {
		limits.DefaultLength = def.DefaultLength
	}
	if limits.MaxLength == 0 {
		limits.MaxLength = def.MaxLength
	}
	if limits.MaxBatch == 0 {
		limits.MaxBatch = def.MaxBatch
	}
	if gen == nil {
		gen = nonce.Default()
	}

	s := &NonceService{
		gen:     gen,
		limits:  limits,
		log:     logger.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the effective limits.
func (s *NonceService) Limits() Limits {
	return s.limits
}

// Issue validates req and generates the batch.
func (s *NonceService) Issue(ctx context.Context, req *IssueRequest) (*IssueResponse, error) {
	batch, err := s.issue(ctx, req)
	if err != nil {
		s.rejected.Add(1)
		code := domain.GetErrorCode(err)
		if code == "" {
			code = "context"
		}
		s.metrics.ObserveIssueError(code)
		logger.L(ctx).Debug("issue rejected", "error", err)
		return nil, err
	}

	s.issued.Add(uint64(len(batch.Nonces)))
	s.batches.Add(1)
	s.metrics.ObserveIssued(batch.Length, len(batch.Nonces))
	logger.L(logger.WithBatchID(ctx, batch.ID)).Debug("batch issued",
		"length", batch.Length,
		"count", len(batch.Nonces),
		"first_nonce", batch.Nonces[0])

	return &IssueResponse{Batch: batch}, nil
}

func (s *NonceService) issue(ctx context.Context, req *IssueRequest) (*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrBadRequest.WithDetails("empty request")
	}

	length := req.Length
	if length == 0 && !req.LengthSet {
		length = s.limits.DefaultLength
	}
	if err := nonce.ValidateLength(length); err != nil {
		return nil, domain.ErrInvalidLength.WithDetails(err.Error()).WithCause(err)
	}
	if length > s.limits.MaxLength {
		return nil, domain.ErrLengthTooLarge.Detailf("length %d exceeds %d", length, s.limits.MaxLength)
	}

	count := req.Count
	if count == 0 && !req.CountSet {
		count = 1
	}
	if count < 1 {
		return nil, domain.ErrInvalidCount.Detailf("count %d", count)
	}
	if count > s.limits.MaxBatch {
		return nil, domain.ErrBatchTooLarge.Detailf("count %d exceeds %d", count, s.limits.MaxBatch)
	}

	tokens, err := s.gen.GenerateN(count, length)
	if err != nil {
		if errors.Is(err, nonce.ErrInvalidLength) {
			return nil, domain.ErrInvalidLength.WithCause(err)
		}
		return nil, domain.ErrInternal.WithDetails("generate nonces").WithCause(err)
	}

	id, err := domain.NewBatchID()
	if err != nil {
		return nil, domain.ErrInternal.WithDetails("batch id").WithCause(err)
	}

	nonces := make([]string, len(tokens))
	for i, tok := range tokens {
		nonces[i] = tok.String()
	}
	return &domain.Batch{
		ID:       id,
		Length:   length,
		Nonces:   nonces,
		IssuedAt: time.Now().UTC(),
	}, nil
}

// Stats returns a snapshot of the service counters.
func (s *NonceService) Stats() ServiceStats {
	return ServiceStats{
		NoncesIssued: s.issued.Load(),
		Batches:      s.batches.Load(),
		Rejected:     s.rejected.Load(),
		Guard:        s.gen.Guard().Stats(),
		StartedAt:    s.started,
		Uptime:       time.Since(s.started),
	}
}
