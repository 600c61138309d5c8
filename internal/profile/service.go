// Package profile はアカウントレコードとロールプロフィールのドメインロジックを提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/repository"
	"github.com/hitoshi/mentorlink/internal/security"
)

// MentorProfileAttrs はメンタープロフィール作成時の入力属性。
type MentorProfileAttrs struct {
	Industry           string
	JobTitle           string
	HelpTypesOffered   []string
	Interests          []string
	PictureURL         string
	MaxRequestsPerWeek int
}

// MenteeProfileAttrs はメンティープロフィール作成時の入力属性。
type MenteeProfileAttrs struct {
	Industry   string
	Goals      string
	Background string
	HelpNeeded []string
	Interests  []string
	PictureURL string
}

// Service はProfileStoreのサービス層。
// アカウントレコードとロールプロフィールは単一書き込み者（本人）のみが変更する。
type Service struct {
	accountRepo  repository.AccountRepository
	mentorRepo   repository.MentorProfileRepository
	menteeRepo   repository.MenteeProfileRepository
	sanitizer    security.TextSanitizerService
	pictureGuard security.PictureURLGuardService
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	mentorRepo repository.MentorProfileRepository,
	menteeRepo repository.MenteeProfileRepository,
	sanitizer security.TextSanitizerService,
	pictureGuard security.PictureURLGuardService,
) *Service {
	return &Service{
		accountRepo:  accountRepo,
		mentorRepo:   mentorRepo,
		menteeRepo:   menteeRepo,
		sanitizer:    sanitizer,
		pictureGuard: pictureGuard,
	}
}

// GetAccount は指定アカウントを取得する。
func (s *Service) GetAccount(ctx context.Context, subjectID string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	return account, nil
}

// SetRole はアカウントのロールを設定する。
// ロールは1回だけ設定可能で、再設定はROLE_ALREADY_SETエラーで拒否される
// （サイレントな上書きはしない）。
func (s *Service) SetRole(ctx context.Context, subjectID, rawRole string) (*model.Account, error) {
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return nil, model.NewInvalidRoleError(rawRole)
	}

	account, err := s.GetAccount(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if account.Role != model.RoleUnset {
		return nil, model.NewRoleAlreadySetError(account.Role)
	}

	updated, err := s.accountRepo.SetRoleOnce(ctx, subjectID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	if !updated {
		// 事前チェックと更新の間に別リクエストがロールを設定したケース
		current, err := s.GetAccount(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		return nil, model.NewRoleAlreadySetError(current.Role)
	}

	slog.Info("role selected",
		slog.String("account_id", subjectID),
		slog.String("role", string(role)),
	)

	account.Role = role
	return account, nil
}

// HasRoleProfile はアカウントのロールに対応するロールプロフィールが存在するかを返す。
// ロール未選択の場合は常にfalse。
func (s *Service) HasRoleProfile(ctx context.Context, account *model.Account) (bool, error) {
	switch account.Role {
	case model.RoleMentor:
		p, err := s.mentorRepo.FindByAccountID(ctx, account.ID)
		if err != nil {
			return false, fmt.Errorf("failed to check mentor profile: %w", err)
		}
		return p != nil, nil
	case model.RoleMentee:
		p, err := s.menteeRepo.FindByAccountID(ctx, account.ID)
		if err != nil {
			return false, fmt.Errorf("failed to check mentee profile: %w", err)
		}
		return p != nil, nil
	default:
		return false, nil
	}
}

// GetMentorProfile は指定アカウントのメンタープロフィールを取得する。
// 未登録の場合はPROFILE_NOT_FOUNDエラーを返す。
// 呼び出し側はこのエラーを「オンボーディングへ誘導」として扱う。
func (s *Service) GetMentorProfile(ctx context.Context, subjectID string) (*model.MentorProfile, error) {
	p, err := s.mentorRepo.FindByAccountID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mentor profile: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError(model.RoleMentor)
	}
	return p, nil
}

// GetMenteeProfile は指定アカウントのメンティープロフィールを取得する。
// 未登録の場合はPROFILE_NOT_FOUNDエラーを返す。
func (s *Service) GetMenteeProfile(ctx context.Context, subjectID string) (*model.MenteeProfile, error) {
	p, err := s.menteeRepo.FindByAccountID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mentee profile: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError(model.RoleMentee)
	}
	return p, nil
}

// CreateMentorProfile はメンタープロフィールを作成する。
// アカウントのロールがmentorでない場合はFORBIDDENエラーを返す。
// 自由記述フィールドはサニタイズし、画像URLは事前検証する。
// 作成成功が AuthenticatedIncomplete → AuthenticatedComplete の唯一の遷移点。
func (s *Service) CreateMentorProfile(ctx context.Context, subjectID string, attrs MentorProfileAttrs) (*model.MentorProfile, error) {
	account, err := s.GetAccount(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if account.Role != model.RoleMentor {
		return nil, model.NewForbiddenError("mentor profile requires the mentor role")
	}

	helpTypes, ok := model.ParseHelpTypes(attrs.HelpTypesOffered)
	if !ok || len(helpTypes) == 0 {
		return nil, model.NewInvalidHelpTypeError(fmt.Sprintf("%v", attrs.HelpTypesOffered))
	}

	if err := s.pictureGuard.ValidateURL(attrs.PictureURL); err != nil {
		return nil, model.NewInvalidPictureURLError(err.Error())
	}

	maxPerWeek := attrs.MaxRequestsPerWeek
	if maxPerWeek <= 0 {
		maxPerWeek = 3
	}

	now := time.Now()
	p := &model.MentorProfile{
		ID:                 uuid.New().String(),
		AccountID:          subjectID,
		Industry:           s.sanitizer.Sanitize(attrs.Industry),
		JobTitle:           s.sanitizer.Sanitize(attrs.JobTitle),
		HelpTypesOffered:   helpTypes,
		Interests:          s.sanitizer.SanitizeAll(attrs.Interests),
		PictureURL:         attrs.PictureURL,
		MaxRequestsPerWeek: maxPerWeek,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.mentorRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("mentor profile created",
		slog.String("account_id", subjectID),
		slog.String("industry", p.Industry),
	)

	return p, nil
}

// CreateMenteeProfile はメンティープロフィールを作成する。
// アカウントのロールがmenteeでない場合はFORBIDDENエラーを返す。
func (s *Service) CreateMenteeProfile(ctx context.Context, subjectID string, attrs MenteeProfileAttrs) (*model.MenteeProfile, error) {
	account, err := s.GetAccount(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if account.Role != model.RoleMentee {
		return nil, model.NewForbiddenError("mentee profile requires the mentee role")
	}

	helpNeeded, ok := model.ParseHelpTypes(attrs.HelpNeeded)
	if !ok || len(helpNeeded) == 0 {
		return nil, model.NewInvalidHelpTypeError(fmt.Sprintf("%v", attrs.HelpNeeded))
	}

	if err := s.pictureGuard.ValidateURL(attrs.PictureURL); err != nil {
		return nil, model.NewInvalidPictureURLError(err.Error())
	}

	now := time.Now()
	p := &model.MenteeProfile{
		ID:         uuid.New().String(),
		AccountID:  subjectID,
		Industry:   s.sanitizer.Sanitize(attrs.Industry),
		Goals:      s.sanitizer.Sanitize(attrs.Goals),
		Background: s.sanitizer.Sanitize(attrs.Background),
		HelpNeeded: helpNeeded,
		Interests:  s.sanitizer.SanitizeAll(attrs.Interests),
		PictureURL: attrs.PictureURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.menteeRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("mentee profile created",
		slog.String("account_id", subjectID),
		slog.String("industry", p.Industry),
	)

	return p, nil
}
