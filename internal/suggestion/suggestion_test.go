package suggestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/orchestrator"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
)

type memSuggestionStore struct {
	rows map[string]*models.Suggestion
}

func newMemStore() *memSuggestionStore {
	return &memSuggestionStore{rows: make(map[string]*models.Suggestion)}
}

func (m *memSuggestionStore) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	cp := *s
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSuggestionStore) GetSuggestion(ctx context.Context, id string) (*models.Suggestion, error) {
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSuggestionStore) ListSuggestions(ctx context.Context, limit int) ([]models.Suggestion, error) {
	var out []models.Suggestion
	for _, s := range m.rows {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSuggestionStore) UpdateSuggestionStatus(ctx context.Context, id string, status models.SuggestionStatus, clearLogs bool) error {
	s, ok := m.rows[id]
	if !ok {
		return errors.New("not found")
	}
	s.Status = status
	if clearLogs {
		s.Logs = ""
		s.ResultCollectionID = nil
	}
	return nil
}

func (m *memSuggestionStore) FinishSuggestion(ctx context.Context, id string, status models.SuggestionStatus, resultCollectionID *int64, logs string) error {
	s, ok := m.rows[id]
	if !ok {
		return errors.New("not found")
	}
	s.Status = status
	s.ResultCollectionID = resultCollectionID
	s.Logs = logs
	return nil
}

type fakeExtractor struct {
	calls int
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, sourceURL, creatorName string, opts orchestrator.Options) (*models.ExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.ExtractionResult{
		Collection: &models.Collection{ID: int64(100 + f.calls)},
		Results: []models.MentionResult{
			{Mention: models.RestaurantMention{Name: "Good"}, Imported: true},
			{Mention: models.RestaurantMention{Name: "Bad"}, Error: "no match"},
		},
		Stats: models.ExtractionStats{TotalMentions: 2, Verified: 1, Imported: 1, Failed: 1},
	}, nil
}

func testService(store SuggestionStore, ext Extractor) *Service {
	log := logging.New(logging.LogConfig{Level: "error", Format: "text"})
	return New(store, ext, log)
}

func submit(t *testing.T, s *Service) *models.Suggestion {
	t.Helper()
	sug, err := s.Submit(context.Background(), "https://youtu.be/abc", "Tester")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return sug
}

func TestSubmitCreatesPending(t *testing.T) {
	s := testService(newMemStore(), &fakeExtractor{})
	sug := submit(t, s)
	if sug.Status != models.SuggestionPending {
		t.Fatalf("status = %q, want pending", sug.Status)
	}
	if sug.ID == "" {
		t.Fatal("missing id")
	}
}

func TestSubmitRequiresURL(t *testing.T) {
	s := testService(newMemStore(), &fakeExtractor{})
	if _, err := s.Submit(context.Background(), "", "Tester"); !errs.Is(err, errs.ErrInput) {
		t.Fatalf("err = %v, want input error", err)
	}
}

func TestApproveRunsToCompleted(t *testing.T) {
	ext := &fakeExtractor{}
	s := testService(newMemStore(), ext)
	sug := submit(t, s)

	got, err := s.Approve(context.Background(), sug.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != models.SuggestionCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.ResultCollectionID == nil || *got.ResultCollectionID != 101 {
		t.Fatalf("result collection = %v", got.ResultCollectionID)
	}
	if !strings.Contains(got.Logs, `"stats"`) || !strings.Contains(got.Logs, "no match") {
		t.Fatalf("logs = %q, want stats and mention errors", got.Logs)
	}
	if ext.calls != 1 {
		t.Fatalf("extractor ran %d times", ext.calls)
	}
}

func TestApproveFailureLandsOnFailed(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("metadata unavailable")}
	s := testService(newMemStore(), ext)
	sug := submit(t, s)

	got, err := s.Approve(context.Background(), sug.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != models.SuggestionFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if !strings.Contains(got.Logs, "metadata unavailable") {
		t.Fatalf("logs = %q", got.Logs)
	}
	if got.ResultCollectionID != nil {
		t.Fatalf("failed run should have no result collection, got %v", *got.ResultCollectionID)
	}
}

func TestApproveRequiresPending(t *testing.T) {
	s := testService(newMemStore(), &fakeExtractor{})
	sug := submit(t, s)
	if _, err := s.Approve(context.Background(), sug.ID); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	if _, err := s.Approve(context.Background(), sug.ID); !errs.Is(err, errs.ErrInput) {
		t.Fatalf("second Approve err = %v, want input error", err)
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	s := testService(newMemStore(), &fakeExtractor{})
	sug := submit(t, s)

	got, err := s.Reject(context.Background(), sug.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != models.SuggestionRejected {
		t.Fatalf("status = %q, want rejected", got.Status)
	}
	if _, err := s.Reject(context.Background(), sug.ID); !errs.Is(err, errs.ErrInput) {
		t.Fatalf("second Reject err = %v, want input error", err)
	}
}

func TestReprocessOverwritesResult(t *testing.T) {
	ext := &fakeExtractor{}
	s := testService(newMemStore(), ext)
	sug := submit(t, s)

	first, err := s.Approve(context.Background(), sug.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	second, err := s.Reprocess(context.Background(), sug.ID)
	if err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if second.Status != models.SuggestionCompleted {
		t.Fatalf("status = %q", second.Status)
	}
	if *second.ResultCollectionID == *first.ResultCollectionID {
		t.Fatal("reprocess should produce a new collection id")
	}
	if ext.calls != 2 {
		t.Fatalf("extractor ran %d times, want 2", ext.calls)
	}
}

func TestReprocessFromFailed(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("boom")}
	s := testService(newMemStore(), ext)
	sug := submit(t, s)

	if _, err := s.Approve(context.Background(), sug.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	ext.err = nil

	got, err := s.Reprocess(context.Background(), sug.ID)
	if err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if got.Status != models.SuggestionCompleted {
		t.Fatalf("status = %q, want completed after retrying a failed run", got.Status)
	}
}

func TestReprocessRejectsPending(t *testing.T) {
	s := testService(newMemStore(), &fakeExtractor{})
	sug := submit(t, s)
	if _, err := s.Reprocess(context.Background(), sug.ID); !errs.Is(err, errs.ErrInput) {
		t.Fatalf("err = %v, want input error", err)
	}
}
