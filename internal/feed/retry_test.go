package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 800 * time.Millisecond}, // 上限はbaseの8倍
		{10, 800 * time.Millisecond},
	}

	for _, tt := range tests {
		got := CalculateBackoff(tt.attempt, base)
		if got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestFetchWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context) ([]model.Candidate, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return []model.Candidate{{AccountID: "mentor-1"}}, nil
	}

	got, err := fetchWithRetry(context.Background(), 3, 1*time.Millisecond, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("candidates = %d, want 1", len(got))
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestFetchWithRetry_ExhaustionReturnsAPIError(t *testing.T) {
	fn := func(ctx context.Context) ([]model.Candidate, error) {
		return nil, errors.New("down")
	}

	_, err := fetchWithRetry(context.Background(), 3, 1*time.Millisecond, fn)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != model.ErrCodeCandidateFetchFailed {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeCandidateFetchFailed)
	}
}

func TestFetchWithRetry_ContextCancelAbortsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	fn := func(ctx context.Context) ([]model.Candidate, error) {
		calls++
		cancel()
		return nil, errors.New("failing")
	}

	_, err := fetchWithRetry(ctx, 5, 10*time.Second, fn)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (retry sleep should observe cancellation)", calls)
	}
}
