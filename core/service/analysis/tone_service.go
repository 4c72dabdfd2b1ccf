package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tone_server/core/domain"
	"tone_server/core/port/in"
	"tone_server/core/port/out"
	"tone_server/core/service/preprocess"
	"tone_server/core/service/profile"
	"tone_server/core/service/style"
	"tone_server/pkg/apperr"
	"tone_server/pkg/logger"
)

var _ in.ToneService = (*Service)(nil)

const maxHistory = 200

var (
	errNoLLM       = errors.New("llm client not configured")
	errNoPublisher = errors.New("publisher not configured")
)

// Dependencies wires the service. Cache, Publisher and Improver are optional.
type Dependencies struct {
	Pipeline   *Pipeline
	Batch      out.BatchAnalyzer
	Analyses   out.AnalysisRepository
	Profiles   out.ProfileRepository
	Cache      out.ProfileCache
	Publisher  out.JobPublisher
	Aggregator *profile.Aggregator
	Validator  *style.Validator
	Improver   *style.Improver
	Logger     *logger.Logger
}

// Service implements in.ToneService.
type Service struct {
	pipeline   *Pipeline
	batch      out.BatchAnalyzer
	analyses   out.AnalysisRepository
	profiles   out.ProfileRepository
	cache      out.ProfileCache
	publisher  out.JobPublisher
	aggregator *profile.Aggregator
	validator  *style.Validator
	improver   *style.Improver
	log        *logger.Logger
	now        func() time.Time
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		pipeline:   deps.Pipeline,
		batch:      deps.Batch,
		analyses:   deps.Analyses,
		profiles:   deps.Profiles,
		cache:      deps.Cache,
		publisher:  deps.Publisher,
		aggregator: deps.Aggregator,
		validator:  deps.Validator,
		improver:   deps.Improver,
		log:        log.WithField("component", "tone_service"),
		now:        time.Now,
	}
}

// AnalyzeBatch analyzes new emails of a user, stores them and rebuilds the profile
// from the user's whole history. A failing email never aborts the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, userID string, emails []domain.EmailInput) (*domain.BatchResult, error) {
	if err := validateBatch(userID, emails); err != nil {
		return nil, err
	}
	start := s.now()

	// 1. Assign ids and drop duplicates
	emails = preprocess.Deduplicate(withIDs(emails))
	result := &domain.BatchResult{UserID: userID, Received: len(emails), Items: []domain.AnalysisOutcome{}}

	// 2. Skip emails analyzed in an earlier batch
	ids := make([]string, len(emails))
	for i, e := range emails {
		ids[i] = e.ID
	}
	existing, err := s.analyses.ExistingEmailIDs(ctx, userID, ids)
	if err != nil {
		return nil, apperr.DatabaseError("check analyzed emails", err)
	}
	fresh := make([]domain.EmailInput, 0, len(emails))
	for _, e := range emails {
		if existing[e.ID] {
			result.Skipped++
			continue
		}
		fresh = append(fresh, e)
	}

	// 3. Analyze in parallel; returns once every email has finished
	outcomes := []domain.AnalysisOutcome{}
	if len(fresh) > 0 {
		outcomes, err = s.batch.AnalyzeAll(ctx, fresh)
		if err != nil {
			return nil, apperr.InternalWithError(err)
		}
	}
	result.Items = outcomes

	// 4. Persist successful analyses
	analyzedAt := s.now().UTC()
	rows := make([]domain.EmailAnalysis, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Failed() {
			result.Failed++
			s.log.Debug("[Service.AnalyzeBatch] email %s skipped: %s", o.EmailID, o.Error)
			continue
		}
		rows = append(rows, domain.EmailAnalysis{
			ID:         uuid.NewString(),
			UserID:     userID,
			EmailID:    o.EmailID,
			Features:   o.Features,
			Axes:       *o.Axes,
			AnalyzedAt: analyzedAt,
		})
	}
	result.Analyzed = len(rows)

	if len(rows) > 0 {
		if err := s.analyses.SaveAnalyses(ctx, rows); err != nil {
			return nil, apperr.DatabaseError("save analyses", err)
		}
	}

	// 5. Rebuild the profile from the full history
	stored, err := s.rebuild(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		result.Profile = &stored.Profile
	}

	s.log.Info("[Service.AnalyzeBatch] user=%s received=%d analyzed=%d failed=%d skipped=%d took=%s",
		userID, result.Received, result.Analyzed, result.Failed, result.Skipped, s.now().Sub(start))
	return result, nil
}

// EnqueueBatch publishes the batch for the worker process and returns the job id.
func (s *Service) EnqueueBatch(ctx context.Context, userID string, emails []domain.EmailInput) (string, error) {
	if err := validateBatch(userID, emails); err != nil {
		return "", err
	}
	if s.publisher == nil {
		return "", apperr.ExternalError("job stream", errNoPublisher)
	}

	job := &out.AnalysisJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		Emails:    withIDs(emails),
		CreatedAt: s.now().UTC(),
	}
	if err := s.publisher.PublishAnalysisJob(ctx, job); err != nil {
		return "", apperr.ExternalError("job stream", err)
	}

	s.log.Info("[Service.EnqueueBatch] job=%s user=%s emails=%d", job.ID, userID, len(job.Emails))
	return job.ID, nil
}

// AnalyzeText analyzes a single text without touching storage.
func (s *Service) AnalyzeText(_ context.Context, text string) (*domain.TextAnalysis, error) {
	result, err := s.pipeline.AnalyzeText(text)
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

// History returns the user's most recent analyses.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*domain.EmailAnalysis, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.MissingField("user_id")
	}
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}

	analyses, err := s.analyses.ListAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, apperr.DatabaseError("list analyses", err)
	}
	return analyses, nil
}

// GetProfile returns the stored profile, reading through the cache.
func (s *Service) GetProfile(ctx context.Context, userID string) (*domain.StoredProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.MissingField("user_id")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("[Service.GetProfile] cache read failed for %s: %v", userID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	stored, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("get profile", err)
	}
	if stored == nil {
		return nil, apperr.ProfileNotFound(userID)
	}

	s.cacheProfile(ctx, stored)
	return stored, nil
}

// Rebuild recomputes the profile from the stored tone-axes history.
func (s *Service) Rebuild(ctx context.Context, userID string) (*domain.StoredProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.MissingField("user_id")
	}
	stored, err := s.rebuild(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, apperr.ProfileNotFound(userID)
	}
	return stored, nil
}

// EnqueueRebuild publishes a profile rebuild for the worker process.
func (s *Service) EnqueueRebuild(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperr.MissingField("user_id")
	}
	if s.publisher == nil {
		return "", apperr.ExternalError("job stream", errNoPublisher)
	}

	job := &out.RebuildJob{ID: uuid.NewString(), UserID: userID, CreatedAt: s.now().UTC()}
	if err := s.publisher.PublishRebuildJob(ctx, job); err != nil {
		return "", apperr.ExternalError("job stream", err)
	}
	return job.ID, nil
}

// Validate scores text against the user's stored profile.
func (s *Service) Validate(ctx context.Context, userID, text string) (*domain.ValidationReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.MissingField("text")
	}
	stored, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := s.validator.Validate(stored.Profile, text)
	return &report, nil
}

// Improve rewrites a draft in the user's style.
func (s *Service) Improve(ctx context.Context, userID string, draft domain.DraftRequest) (*domain.ImprovedDraft, error) {
	if strings.TrimSpace(draft.Content) == "" {
		return nil, apperr.MissingField("content")
	}
	if s.improver == nil {
		return nil, apperr.LLMUnavailable(errNoLLM)
	}
	stored, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	improved, err := s.improver.Improve(ctx, stored.Profile, draft)
	if err != nil {
		s.log.WithError(err).Error("[Service.Improve] user=%s", userID)
		return nil, toAppError(err)
	}
	return improved, nil
}

// rebuild aggregates the user's history. It returns nil when the user has none.
func (s *Service) rebuild(ctx context.Context, userID string) (*domain.StoredProfile, error) {
	history, err := s.analyses.ListToneAxes(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("list tone axes", err)
	}
	if len(history) == 0 {
		return nil, nil
	}

	p := s.aggregator.Aggregate(history)
	if err := s.profiles.SaveProfile(ctx, userID, p); err != nil {
		return nil, apperr.DatabaseError("save profile", err)
	}

	stored := &domain.StoredProfile{UserID: userID, Profile: p, UpdatedAt: s.now().UTC()}
	s.cacheProfile(ctx, stored)
	return stored, nil
}

func (s *Service) cacheProfile(ctx context.Context, stored *domain.StoredProfile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, stored); err != nil {
		s.log.Warn("[Service.cacheProfile] cache write failed for %s: %v", stored.UserID, err)
	}
}

func validateBatch(userID string, emails []domain.EmailInput) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.MissingField("user_id")
	}
	if len(emails) == 0 {
		return apperr.MissingField("emails")
	}
	return nil
}

// withIDs returns a copy of emails where missing ids are filled with fresh uuids.
func withIDs(emails []domain.EmailInput) []domain.EmailInput {
	assigned := make([]domain.EmailInput, len(emails))
	for i, e := range emails {
		if strings.TrimSpace(e.ID) == "" {
			e.ID = uuid.NewString()
		}
		assigned[i] = e
	}
	return assigned
}
