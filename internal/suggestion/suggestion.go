// Package suggestion drives the user-submission workflow around the
// extraction pipeline: pending → processing → {completed, failed}, with a
// pending → rejected branch and a reprocess path that re-enters processing
// from any non-pending state.
//
// Two concurrent approve/reprocess calls on the same id are not guarded
// against; the second run overwrites the first's result and logs.
package suggestion

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/orchestrator"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
)

// SuggestionStore is the persistence slice the state machine drives.
type SuggestionStore interface {
	CreateSuggestion(ctx context.Context, s *models.Suggestion) error
	GetSuggestion(ctx context.Context, id string) (*models.Suggestion, error)
	ListSuggestions(ctx context.Context, limit int) ([]models.Suggestion, error)
	UpdateSuggestionStatus(ctx context.Context, id string, status models.SuggestionStatus, clearLogs bool) error
	FinishSuggestion(ctx context.Context, id string, status models.SuggestionStatus, resultCollectionID *int64, logs string) error
}

// Extractor runs the pipeline; satisfied by orchestrator.Service.
type Extractor interface {
	Extract(ctx context.Context, sourceURL, creatorName string, opts orchestrator.Options) (*models.ExtractionResult, error)
}

type Service struct {
	store     SuggestionStore
	extractor Extractor
	newID     func() string
	log       *logging.Logger
}

func New(store SuggestionStore, ext Extractor, log *logging.Logger) *Service {
	return &Service{
		store:     store,
		extractor: ext,
		newID:     uuid.NewString,
		log:       log.WithComponent("suggestion"),
	}
}

// Submit creates a pending suggestion for a video URL.
func (s *Service) Submit(ctx context.Context, sourceURL, submitterName string) (*models.Suggestion, error) {
	if sourceURL == "" {
		return nil, errs.NewInput("suggestion.Submit", "source URL is required", nil)
	}
	sug := &models.Suggestion{
		ID:            s.newID(),
		SourceURL:     sourceURL,
		SubmitterName: submitterName,
		Status:        models.SuggestionPending,
	}
	if err := s.store.CreateSuggestion(ctx, sug); err != nil {
		return nil, err
	}
	s.log.Info("suggestion submitted", logging.String("id", sug.ID), logging.String("url", sourceURL))
	return sug, nil
}

// Approve moves a pending suggestion into processing and runs the pipeline
// to completion. The call blocks for the duration of the run.
func (s *Service) Approve(ctx context.Context, id string) (*models.Suggestion, error) {
	sug, err := s.require(ctx, id)
	if err != nil {
		return nil, err
	}
	if sug.Status != models.SuggestionPending {
		return nil, errs.NewInput("suggestion.Approve",
			"only pending suggestions can be approved, current status: "+string(sug.Status), nil)
	}
	if err := s.store.UpdateSuggestionStatus(ctx, id, models.SuggestionProcessing, false); err != nil {
		return nil, err
	}
	return s.run(ctx, sug)
}

// Reject terminates a pending suggestion.
func (s *Service) Reject(ctx context.Context, id string) (*models.Suggestion, error) {
	sug, err := s.require(ctx, id)
	if err != nil {
		return nil, err
	}
	if sug.Status != models.SuggestionPending {
		return nil, errs.NewInput("suggestion.Reject",
			"only pending suggestions can be rejected, current status: "+string(sug.Status), nil)
	}
	if err := s.store.UpdateSuggestionStatus(ctx, id, models.SuggestionRejected, false); err != nil {
		return nil, err
	}
	return s.store.GetSuggestion(ctx, id)
}

// Reprocess reruns the pipeline from any non-pending state, clearing prior
// logs and overwriting the prior result collection.
func (s *Service) Reprocess(ctx context.Context, id string) (*models.Suggestion, error) {
	sug, err := s.require(ctx, id)
	if err != nil {
		return nil, err
	}
	if sug.Status == models.SuggestionPending {
		return nil, errs.NewInput("suggestion.Reprocess",
			"pending suggestions go through approve, not reprocess", nil)
	}
	if err := s.store.UpdateSuggestionStatus(ctx, id, models.SuggestionProcessing, true); err != nil {
		return nil, err
	}
	return s.run(ctx, sug)
}

// Get returns one suggestion, or nil when unknown.
func (s *Service) Get(ctx context.Context, id string) (*models.Suggestion, error) {
	return s.store.GetSuggestion(ctx, id)
}

// List returns recent suggestions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]models.Suggestion, error) {
	return s.store.ListSuggestions(ctx, limit)
}

func (s *Service) require(ctx context.Context, id string) (*models.Suggestion, error) {
	sug, err := s.store.GetSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if sug == nil {
		return nil, errs.NewInput("suggestion.require", "suggestion not found: "+id, nil)
	}
	return sug, nil
}

// run executes the pipeline and lands the suggestion on completed or
// failed with structured logs.
func (s *Service) run(ctx context.Context, sug *models.Suggestion) (*models.Suggestion, error) {
	result, err := s.extractor.Extract(ctx, sug.SourceURL, sug.SubmitterName, orchestrator.Options{})
	if err != nil {
		logs := marshalLogs(map[string]any{"error": err.Error()})
		if ferr := s.store.FinishSuggestion(ctx, sug.ID, models.SuggestionFailed, nil, logs); ferr != nil {
			s.log.Error("failed to record failed run", logging.String("id", sug.ID), logging.Err(ferr))
		}
		s.log.Warn("suggestion run failed", logging.String("id", sug.ID), logging.Err(err))
		return s.store.GetSuggestion(ctx, sug.ID)
	}

	var mentionErrors []string
	for _, mr := range result.Results {
		if mr.Error != "" {
			mentionErrors = append(mentionErrors, mr.Mention.Name+": "+mr.Error)
		}
	}
	logs := marshalLogs(map[string]any{"stats": result.Stats, "errors": mentionErrors})
	if err := s.store.FinishSuggestion(ctx, sug.ID, models.SuggestionCompleted, &result.Collection.ID, logs); err != nil {
		s.log.Error("failed to record completed run", logging.String("id", sug.ID), logging.Err(err))
	}
	return s.store.GetSuggestion(ctx, sug.ID)
}

func marshalLogs(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"log encoding failed"}`
	}
	return string(b)
}
