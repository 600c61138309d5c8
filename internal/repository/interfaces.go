// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// CreateWithIdentity はアカウントとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, account *model.Account, identity *model.Identity) error

	// SetRoleOnce はロール未設定のアカウントにロールを設定する。
	// 既にロールが設定されている場合は更新せずfalseを返す（上書き禁止）。
	SetRoleOnce(ctx context.Context, id string, role model.Role) (bool, error)
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// MentorProfileRepository はメンタープロフィールの永続化インターフェース。
type MentorProfileRepository interface {
	// FindByAccountID は指定アカウントのメンタープロフィールを取得する。
	// 見つからない場合はnilを返す。
	FindByAccountID(ctx context.Context, accountID string) (*model.MentorProfile, error)

	// Create はメンタープロフィールを作成する。
	// 同一アカウントのプロフィールが既に存在する場合はPROFILE_ALREADY_EXISTSエラーを返す。
	Create(ctx context.Context, profile *model.MentorProfile) error
}

// MenteeProfileRepository はメンティープロフィールの永続化インターフェース。
type MenteeProfileRepository interface {
	// FindByAccountID は指定アカウントのメンティープロフィールを取得する。
	// 見つからない場合はnilを返す。
	FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error)

	// Create はメンティープロフィールを作成する。
	// 同一アカウントのプロフィールが既に存在する場合はPROFILE_ALREADY_EXISTSエラーを返す。
	Create(ctx context.Context, profile *model.MenteeProfile) error
}

// CandidateQuery は候補メンターのページ取得条件。
type CandidateQuery struct {
	// SubjectID は閲覧中のメンティーのアカウントID。
	// 本人と、既にpending/acceptedリクエストが存在するメンターは除外される。
	SubjectID string
	// Industry はハードフィルタ（大文字小文字を無視した一致）。
	Industry string
	// HelpType は任意フィルタ。空の場合は適用しない。
	HelpType model.HelpType
	Limit    int
	Offset   int
}

// CandidateRepository は候補メンターの読み取り専用インターフェース。
type CandidateRepository interface {
	// ListPage は条件に合致する候補メンターを作成日時昇順で1ページ分返す。
	ListPage(ctx context.Context, q CandidateQuery) ([]model.Candidate, error)
}

// RequestRepository はメンターシップリクエストの永続化インターフェース。
type RequestRepository interface {
	// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Request, error)

	// CreatePending は新規のpendingリクエストを作成する。
	// 同一ペアのpendingが既に存在する場合（部分一意インデックス違反）は
	// REQUEST_ALREADY_PENDINGエラーを返す。
	CreatePending(ctx context.Context, request *model.Request) error

	// ExistsPendingForPair は指定ペアにpendingリクエストが存在するかを返す。
	ExistsPendingForPair(ctx context.Context, menteeID, mentorID string) (bool, error)

	// MarkResponded はpendingリクエストを終端状態へ遷移させる。
	// WHERE status='pending' 付きのUPDATEで実行し、
	// 対象がpendingでなかった場合はfalseを返す（遷移は一度きり）。
	MarkResponded(ctx context.Context, requestID string, status model.RequestStatus, respondedAt time.Time) (bool, error)

	// ListBySubject は指定アカウントがメンティーまたはメンターとして
	// 関与する全リクエストを作成日時昇順で返す。
	ListBySubject(ctx context.Context, subjectID string) ([]*model.Request, error)
}
