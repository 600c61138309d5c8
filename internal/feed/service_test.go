package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/repository"
)

// --- モック ---

type mockCandidateRepo struct {
	listPageFn func(ctx context.Context, q repository.CandidateQuery) ([]model.Candidate, error)
}

func (m *mockCandidateRepo) ListPage(ctx context.Context, q repository.CandidateQuery) ([]model.Candidate, error) {
	return m.listPageFn(ctx, q)
}

type mockMenteeFinder struct {
	findFn func(ctx context.Context, accountID string) (*model.MenteeProfile, error)
}

func (m *mockMenteeFinder) FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error) {
	return m.findFn(ctx, accountID)
}

func menteeWithIndustry(industry string) *mockMenteeFinder {
	return &mockMenteeFinder{
		findFn: func(ctx context.Context, accountID string) (*model.MenteeProfile, error) {
			return &model.MenteeProfile{ID: "mp-1", AccountID: accountID, Industry: industry}, nil
		},
	}
}

// candidateSource は固定の候補列をページングで返すテスト用ソース。
func candidateSource(candidates []model.Candidate) *mockCandidateRepo {
	return &mockCandidateRepo{
		listPageFn: func(ctx context.Context, q repository.CandidateQuery) ([]model.Candidate, error) {
			if q.Offset >= len(candidates) {
				return nil, nil
			}
			end := q.Offset + q.Limit
			if end > len(candidates) {
				end = len(candidates)
			}
			return candidates[q.Offset:end], nil
		},
	}
}

func makeCandidates(n int) []model.Candidate {
	out := make([]model.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Candidate{
			AccountID:   fmt.Sprintf("mentor-%d", i),
			DisplayName: fmt.Sprintf("Mentor %d", i),
			Industry:    "software",
		})
	}
	return out
}

func fastConfig() ServiceConfig {
	return ServiceConfig{
		DefaultPageSize: 5,
		FetchRetry:      2,
		RetryBase:       1 * time.Millisecond,
	}
}

// --- テスト ---

func TestNext_NeverRepeatsCandidates(t *testing.T) {
	source := candidateSource(makeCandidates(12))
	svc := NewService(source, menteeWithIndustry("software"), fastConfig(), nil)

	seen := make(map[string]bool)
	for page := 0; page < 3; page++ {
		candidates, err := svc.Next(context.Background(), "mentee-1", 5, "")
		if err != nil {
			t.Fatalf("page %d: unexpected error: %v", page, err)
		}
		for _, c := range candidates {
			if seen[c.AccountID] {
				t.Errorf("candidate %s returned twice", c.AccountID)
			}
			seen[c.AccountID] = true
		}
	}

	if len(seen) != 12 {
		t.Errorf("total unique candidates = %d, want 12", len(seen))
	}
}

func TestNext_ExhaustedFeedReturnsEmptyPage(t *testing.T) {
	source := candidateSource(makeCandidates(3))
	svc := NewService(source, menteeWithIndustry("software"), fastConfig(), nil)

	first, err := svc.Next(context.Background(), "mentee-1", 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("first page = %d candidates, want 3", len(first))
	}

	// 枯渇は終端であってエラーではない
	second, err := svc.Next(context.Background(), "mentee-1", 5, "")
	if err != nil {
		t.Fatalf("exhausted feed should not error, got %v", err)
	}
	if len(second) != 0 {
		t.Errorf("exhausted feed = %d candidates, want 0", len(second))
	}
}

func TestNext_ResetRestartsFeed(t *testing.T) {
	source := candidateSource(makeCandidates(3))
	svc := NewService(source, menteeWithIndustry("software"), fastConfig(), nil)

	first, err := svc.Next(context.Background(), "mentee-1", 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.Reset("mentee-1")

	again, err := svc.Next(context.Background(), "mentee-1", 5, "")
	if err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
	if len(again) != len(first) {
		t.Errorf("after reset = %d candidates, want %d", len(again), len(first))
	}
}

func TestNext_SubjectsAreIndependent(t *testing.T) {
	source := candidateSource(makeCandidates(4))
	svc := NewService(source, menteeWithIndustry("software"), fastConfig(), nil)

	if _, err := svc.Next(context.Background(), "mentee-1", 4, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 別サブジェクトは独立したカーソルを持つ
	other, err := svc.Next(context.Background(), "mentee-2", 4, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(other) != 4 {
		t.Errorf("independent subject = %d candidates, want 4", len(other))
	}
}

func TestNext_NoMenteeProfile_ReturnsProfileNotFound(t *testing.T) {
	finder := &mockMenteeFinder{
		findFn: func(ctx context.Context, accountID string) (*model.MenteeProfile, error) {
			return nil, nil
		},
	}
	svc := NewService(candidateSource(nil), finder, fastConfig(), nil)

	_, err := svc.Next(context.Background(), "mentee-1", 5, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileNotFound {
		t.Errorf("error = %v, want PROFILE_NOT_FOUND", err)
	}
}

func TestNext_PersistentFetchFailure_ReturnsRetryableError(t *testing.T) {
	source := &mockCandidateRepo{
		listPageFn: func(ctx context.Context, q repository.CandidateQuery) ([]model.Candidate, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(source, menteeWithIndustry("software"), fastConfig(), nil)

	_, err := svc.Next(context.Background(), "mentee-1", 5, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCandidateFetchFailed {
		t.Errorf("error = %v, want CANDIDATE_FETCH_FAILED", err)
	}
}

func TestNext_TransientFailureRecoversWithinRetry(t *testing.T) {
	calls := 0
	source := &mockCandidateRepo{
		listPageFn: func(ctx context.Context, q repository.CandidateQuery) ([]model.Candidate, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("temporary failure")
			}
			if q.Offset >= 2 {
				return nil, nil
			}
			return makeCandidates(2), nil
		},
	}
	svc := NewService(source, menteeWithIndustry("software"), fastConfig(), nil)

	candidates, err := svc.Next(context.Background(), "mentee-1", 2, "")
	if err != nil {
		t.Fatalf("transient failure should recover, got %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(candidates))
	}
}

func TestNext_PassesIndustryAndHelpTypeFilters(t *testing.T) {
	var captured repository.CandidateQuery
	source := &mockCandidateRepo{
		listPageFn: func(ctx context.Context, q repository.CandidateQuery) ([]model.Candidate, error) {
			captured = q
			return nil, nil
		},
	}
	svc := NewService(source, menteeWithIndustry("finance"), fastConfig(), nil)

	if _, err := svc.Next(context.Background(), "mentee-1", 5, model.HelpTypeMockInterview); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.SubjectID != "mentee-1" {
		t.Errorf("subjectID = %q, want %q", captured.SubjectID, "mentee-1")
	}
	if captured.Industry != "finance" {
		t.Errorf("industry = %q, want %q", captured.Industry, "finance")
	}
	if captured.HelpType != model.HelpTypeMockInterview {
		t.Errorf("helpType = %q, want %q", captured.HelpType, model.HelpTypeMockInterview)
	}
}
