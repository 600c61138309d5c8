package feed

import (
	"context"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

// fetchFunc は候補ソースから1ページ取得する関数。
type fetchFunc func(ctx context.Context) ([]model.Candidate, error)

// CalculateBackoff は試行回数に基づいて指数バックオフ遅延を計算する。
// base、2倍ずつ増加、最大はbaseの8倍。
func CalculateBackoff(attempt int, base time.Duration) time.Duration {
	maxDelay := base * 8
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxDelay {
			return maxDelay
		}
	}
	return delay
}

// fetchWithRetry は候補ページの取得を有限回リトライする。
// フェッチはフィードの唯一のサスペンドポイントであり、
// 失敗はサイレントな空ページではなくリトライ可能エラーとして返す。
// コンテキストのキャンセルでリトライは即座に中断される。
func fetchWithRetry(ctx context.Context, attempts int, base time.Duration, fn fetchFunc) ([]model.Candidate, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(CalculateBackoff(i-1, base)):
			}
		}

		candidates, err := fn(ctx)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
	}

	return nil, model.NewCandidateFetchFailedError(lastErr.Error())
}
