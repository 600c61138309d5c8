package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/repository"
)

// MenteeProfileFinder はフィードが必要とするメンティープロフィール検索インターフェース。
// repository.MenteeProfileRepositoryの部分集合として定義する。
type MenteeProfileFinder interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error)
}

// MetricsRecorder はフィード操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCandidatePage(count int)
}

// ServiceConfig はフィードサービスの設定。
type ServiceConfig struct {
	DefaultPageSize int           // pageSize未指定時のページサイズ
	FetchRetry      int           // 候補取得のリトライ回数
	RetryBase       time.Duration // リトライの初回バックオフ
	CursorCleanup   time.Duration // 放置カーソルのクリーンアップ間隔
}

// Service は候補メンターフィードのサービス層。
// サブジェクトごとに単調前進するカーソルを保持し、
// 明示的なリセットまで同一候補を二度提示しない。
type Service struct {
	candidateRepo repository.CandidateRepository
	menteeFinder  MenteeProfileFinder
	cursors       *cursorTable
	config        ServiceConfig
	metrics       MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnilでもよい（記録なし）。
func NewService(candidateRepo repository.CandidateRepository, menteeFinder MenteeProfileFinder, config ServiceConfig, metrics MetricsRecorder) *Service {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	if config.FetchRetry <= 0 {
		config.FetchRetry = 3
	}
	if config.RetryBase <= 0 {
		config.RetryBase = 200 * time.Millisecond
	}
	if config.CursorCleanup <= 0 {
		config.CursorCleanup = 10 * time.Minute
	}
	return &Service{
		candidateRepo: candidateRepo,
		menteeFinder:  menteeFinder,
		cursors:       newCursorTable(config.CursorCleanup),
		config:        config,
		metrics:       metrics,
	}
}

// Stop はカーソルクリーンアップのバックグラウンドゴルーチンを停止する。
func (s *Service) Stop() {
	s.cursors.stop()
}

// Next は次の候補メンターのページを返す。
//
// 保証:
//   - リセットされない限り、同一セッション内で同じ候補を二度返さない
//   - サブジェクト本人は決して返さない（候補ソース側で除外）
//   - 枯渇したフィードは空スライスを返す（終端であってエラーではない）。
//     Resetで再開可能。
//
// helpTypeが空でない場合は提供ヘルプ種別でフィルタする。
// フィードはメンティーロール専用であり、メンティープロフィール未登録の
// 場合はPROFILE_NOT_FOUNDエラーを返す。
func (s *Service) Next(ctx context.Context, subjectID string, pageSize int, helpType model.HelpType) ([]model.Candidate, error) {
	menteeProfile, err := s.menteeFinder.FindByAccountID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentee profile: %w", err)
	}
	if menteeProfile == nil {
		return nil, model.NewProfileNotFoundError(model.RoleMentee)
	}

	if pageSize <= 0 {
		pageSize = s.config.DefaultPageSize
	}

	c := s.cursors.acquire(subjectID)
	c.mu.Lock()
	defer c.mu.Unlock()

	page := make([]model.Candidate, 0, pageSize)

	// seenに入っている候補はスキップするため、必要数が揃うか
	// ソースが枯渇するまでページ取得を繰り返す。
	for len(page) < pageSize {
		fetched, err := fetchWithRetry(ctx, s.config.FetchRetry, s.config.RetryBase,
			func(ctx context.Context) ([]model.Candidate, error) {
				return s.candidateRepo.ListPage(ctx, repository.CandidateQuery{
					SubjectID: subjectID,
					Industry:  menteeProfile.Industry,
					HelpType:  helpType,
					Limit:     pageSize,
					Offset:    c.offset,
				})
			})
		if err != nil {
			return nil, err
		}

		if len(fetched) == 0 {
			// 枯渇。カーソルはそのまま残し、空ページを終端として返す。
			break
		}

		c.offset += len(fetched)

		for _, candidate := range fetched {
			if _, shown := c.seen[candidate.AccountID]; shown {
				continue
			}
			c.seen[candidate.AccountID] = struct{}{}
			page = append(page, candidate)
			if len(page) == pageSize {
				break
			}
		}
	}

	if s.metrics != nil {
		s.metrics.RecordCandidatePage(len(page))
	}

	slog.Info("candidate page served",
		slog.String("subject_id", subjectID),
		slog.Int("count", len(page)),
	)

	return page, nil
}

// Reset はサブジェクトのカーソルを先頭に戻す。
// プロダクトの「リフレッシュ」操作に対応し、提示済み集合もクリアされる。
func (s *Service) Reset(subjectID string) {
	s.cursors.reset(subjectID)
	slog.Info("candidate feed reset", slog.String("subject_id", subjectID))
}
