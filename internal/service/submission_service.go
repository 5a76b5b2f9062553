package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parisxmas/icpform/internal/metrics"
	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/repository"
	"github.com/parisxmas/icpform/internal/schema"
)

// Listing defaults.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ErrMissingCompanyName rejects a submission without a company name.
var ErrMissingCompanyName = errors.New("companyName is required")

type SubmissionService struct {
	subs      *repository.SubmissionRepo
	validator *schema.Validator
	strict    bool
	metrics   *metrics.Metrics
	now       func() time.Time
}

type SubmissionOption func(*SubmissionService)

// WithStrictIntake runs the full field rules on every submission instead
// of only checking the company name.
func WithStrictIntake(v *schema.Validator) SubmissionOption {
	return func(s *SubmissionService) {
		s.validator = v
		s.strict = v != nil
	}
}

func WithMetrics(m *metrics.Metrics) SubmissionOption {
	return func(s *SubmissionService) { s.metrics = m }
}

// WithClock replaces time.Now for createdAt stamps.
func WithClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

func NewSubmissionService(subs *repository.SubmissionRepo, opts ...SubmissionOption) *SubmissionService {
	s := &SubmissionService{
		subs: subs,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores one questionnaire exactly as received. It returns
// ErrMissingCompanyName or schema.FieldErrors for rejected input.
func (s *SubmissionService) Create(ctx context.Context, p *models.Profile) (*models.StoredProfile, error) {
	if strings.TrimSpace(p.CompanyName) == "" {
		s.metrics.Submission(metrics.ResultRejected)
		return nil, ErrMissingCompanyName
	}
	if s.strict {
		if errs := s.validator.Validate(p); errs != nil {
			s.metrics.Submission(metrics.ResultRejected)
			return nil, errs
		}
	}

	sub := &models.StoredProfile{
		Profile:   p.Clone(),
		CreatedAt: s.now().UTC(),
	}
	id, err := s.subs.Create(ctx, sub)
	if err != nil {
		s.metrics.Submission(metrics.ResultFailed)
		return nil, fmt.Errorf("store submission: %w", err)
	}
	sub.ID = id
	s.metrics.Submission(metrics.ResultStored)
	return sub, nil
}

// List returns one page, newest first. Out-of-range arguments fall back
// to the defaults; limit is capped at MaxPageLimit.
func (s *SubmissionService) List(ctx context.Context, page, limit int) (*models.SubmissionPage, error) {
	page, limit = NormalizePage(page, limit)
	skip := (page - 1) * limit

	subs, total, err := s.subs.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return &models.SubmissionPage{
		Submissions: subs,
		Pagination: models.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
