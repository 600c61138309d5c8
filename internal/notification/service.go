// Package notification はマッチ成立後の通知向け読み取りモデルを提供する。
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/mentorlink/internal/ledger"
	"github.com/hitoshi/mentorlink/internal/model"
)

// MatchLister は台帳からサブジェクトのリクエスト区分を取得するインターフェース。
type MatchLister interface {
	ListForSubject(ctx context.Context, subjectID string) (*ledger.RequestBook, error)
}

// AccountFinder は相手アカウントの表示情報取得に必要なインターフェース。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// MentorProfileFinder は相手メンターのプロフィール画像取得に必要なインターフェース。
type MentorProfileFinder interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.MentorProfile, error)
}

// MenteeProfileFinder は相手メンティーのプロフィール画像取得に必要なインターフェース。
type MenteeProfileFinder interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error)
}

// MatchEntry は閲覧者向けに相手の表示情報を結合したマッチ。
type MatchEntry struct {
	RequestID          string
	HelpType           model.HelpType
	CounterpartID      string
	CounterpartName    string
	CounterpartPicture string
	MatchedAt          time.Time
}

// Thread はマッチから導出されるメッセージスレッドのスタブ。
// 配送プロトコルは持たず、スレッドの存在のみを表す。
type Thread struct {
	ThreadID           string // リクエストIDと同一
	CounterpartID      string
	CounterpartName    string
	CounterpartPicture string
	StartedAt          time.Time
}

// Service は通知ビューのサービス層。
// マッチは台帳の導出ビューであり、本サービスは表示情報の結合のみを行う。
// 書き込みは一切持たない。
type Service struct {
	matches     MatchLister
	accountRepo AccountFinder
	mentorRepo  MentorProfileFinder
	menteeRepo  MenteeProfileFinder
}

// NewService はServiceを生成する。
func NewService(matches MatchLister, accountRepo AccountFinder, mentorRepo MentorProfileFinder, menteeRepo MenteeProfileFinder) *Service {
	return &Service{
		matches:     matches,
		accountRepo: accountRepo,
		mentorRepo:  mentorRepo,
		menteeRepo:  menteeRepo,
	}
}

// MatchList はサブジェクトのマッチ一覧を相手の表示情報付きで返す。
// 相手アカウントが見つからない場合でもマッチ自体は返し、
// 表示情報のみ空のままにする（退会済み相手のマッチ履歴は残る）。
func (s *Service) MatchList(ctx context.Context, subjectID string) ([]MatchEntry, error) {
	book, err := s.matches.ListForSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	entries := make([]MatchEntry, 0, len(book.Matches))
	for _, m := range book.Matches {
		entry := MatchEntry{
			RequestID:     m.RequestID,
			HelpType:      m.HelpType,
			CounterpartID: m.CounterpartID,
			MatchedAt:     m.MatchedAt,
		}

		name, picture, err := s.counterpartDisplay(ctx, m)
		if err != nil {
			return nil, err
		}
		entry.CounterpartName = name
		entry.CounterpartPicture = picture

		entries = append(entries, entry)
	}

	return entries, nil
}

// Threads はマッチごとのメッセージスレッドスタブを返す。
// スレッドIDはリクエストIDをそのまま使う。
func (s *Service) Threads(ctx context.Context, subjectID string) ([]Thread, error) {
	entries, err := s.MatchList(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	threads := make([]Thread, 0, len(entries))
	for _, entry := range entries {
		threads = append(threads, Thread{
			ThreadID:           entry.RequestID,
			CounterpartID:      entry.CounterpartID,
			CounterpartName:    entry.CounterpartName,
			CounterpartPicture: entry.CounterpartPicture,
			StartedAt:          entry.MatchedAt,
		})
	}

	return threads, nil
}

// counterpartDisplay は相手の表示名とプロフィール画像URLを解決する。
// 画像は相手のロール側プロフィールから取得する。
func (s *Service) counterpartDisplay(ctx context.Context, m model.Match) (name, picture string, err error) {
	account, err := s.accountRepo.FindByID(ctx, m.CounterpartID)
	if err != nil {
		return "", "", fmt.Errorf("failed to find counterpart account: %w", err)
	}
	if account != nil {
		name = account.DisplayName
	}

	if m.CounterpartID == m.MentorID {
		profile, err := s.mentorRepo.FindByAccountID(ctx, m.CounterpartID)
		if err != nil {
			return "", "", fmt.Errorf("failed to find counterpart mentor profile: %w", err)
		}
		if profile != nil {
			picture = profile.PictureURL
		}
		return name, picture, nil
	}

	profile, err := s.menteeRepo.FindByAccountID(ctx, m.CounterpartID)
	if err != nil {
		return "", "", fmt.Errorf("failed to find counterpart mentee profile: %w", err)
	}
	if profile != nil {
		picture = profile.PictureURL
	}
	return name, picture, nil
}
