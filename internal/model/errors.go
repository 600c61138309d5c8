// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, profile, match, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	ErrCodeProfileNotFound       = "PROFILE_NOT_FOUND"
	ErrCodeRequestNotFound       = "REQUEST_NOT_FOUND"
	ErrCodeRoleAlreadySet        = "ROLE_ALREADY_SET"
	ErrCodeProfileAlreadyExists  = "PROFILE_ALREADY_EXISTS"
	ErrCodeRequestAlreadyPending = "REQUEST_ALREADY_PENDING"
	ErrCodeAlreadyResponded      = "ALREADY_RESPONDED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidRole           = "INVALID_ROLE"
	ErrCodeInvalidHelpType       = "INVALID_HELP_TYPE"
	ErrCodeInvalidOutcome        = "INVALID_OUTCOME"
	ErrCodeInvalidPictureURL     = "INVALID_PICTURE_URL"
	ErrCodeCandidateFetchFailed  = "CANDIDATE_FETCH_FAILED"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
)

// NewAccountNotFoundError はアカウント未検出エラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "アカウントが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewProfileNotFoundError はロールプロフィール未検出エラーを生成する。
// オンボーディング未完了の判定に使用されるため、呼び出し側は
// このエラーを「オンボーディングへ誘導」の分岐として扱う。
func NewProfileNotFoundError(role Role) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("%s プロフィールが登録されていません。", role),
		Category: "profile",
		Action:   "オンボーディングを完了してください。",
	}
}

// NewRequestNotFoundError はリクエスト未検出エラーを生成する。
func NewRequestNotFoundError(requestID string) *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  fmt.Sprintf("指定されたメンターシップリクエストが見つかりません: %s", requestID),
		Category: "match",
		Action:   "リクエストIDを確認してください。",
	}
}

// NewRoleAlreadySetError はロール再設定エラーを生成する。
// ロールは初回選択後イミュータブルであり、上書きは拒否される。
func NewRoleAlreadySetError(current Role) *APIError {
	return &APIError{
		Code:     ErrCodeRoleAlreadySet,
		Message:  fmt.Sprintf("ロールは既に %s に設定されています。", current),
		Category: "profile",
		Action:   "ロールの変更はサポートされていません。",
	}
}

// NewProfileAlreadyExistsError はプロフィール二重作成エラーを生成する。
func NewProfileAlreadyExistsError(role Role) *APIError {
	return &APIError{
		Code:     ErrCodeProfileAlreadyExists,
		Message:  fmt.Sprintf("%s プロフィールは既に登録されています。", role),
		Category: "profile",
		Action:   "プロフィール編集から更新してください。",
	}
}

// NewRequestAlreadyPendingError は保留中リクエストの重複エラーを生成する。
func NewRequestAlreadyPendingError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestAlreadyPending,
		Message:  "このメンターへの保留中リクエストが既に存在します。",
		Category: "match",
		Action:   "メンターの返答をお待ちください。",
	}
}

// NewAlreadyRespondedError は応答済みリクエストへの再応答エラーを生成する。
func NewAlreadyRespondedError(requestID string) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyResponded,
		Message:  fmt.Sprintf("このリクエストは既に応答済みです: %s", requestID),
		Category: "match",
		Action:   "リクエスト一覧を再読み込みしてください。",
	}
}

// NewForbiddenError は権限エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作を実行する権限がありません: %s", reason),
		Category: "auth",
		Action:   "対象のリソースに関与するアカウントでログインしてください。",
	}
}

// NewInvalidRoleError は無効なロールエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには mentor または mentee を指定してください。",
	}
}

// NewInvalidHelpTypeError は無効なヘルプ種別エラーを生成する。
func NewInvalidHelpTypeError(helpType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidHelpType,
		Message:  fmt.Sprintf("無効なヘルプ種別です: %s", helpType),
		Category: "validation",
		Action:   "resume_review、mock_interview、career_advice、social_advice のいずれかを指定してください。",
	}
}

// NewInvalidOutcomeError は無効な応答種別エラーを生成する。
func NewInvalidOutcomeError(outcome string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOutcome,
		Message:  fmt.Sprintf("無効な応答種別です: %s", outcome),
		Category: "validation",
		Action:   "accept または decline を指定してください。",
	}
}

// NewInvalidPictureURLError は無効なプロフィール画像URLエラーを生成する。
func NewInvalidPictureURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPictureURL,
		Message:  fmt.Sprintf("無効なプロフィール画像URLです: %s", reason),
		Category: "validation",
		Action:   "公開されている https:// のURLを指定してください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
// Retry-Afterヘッダーと併せて返される。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエスト数が上限を超えました。",
		Category: "system",
		Action:   "指定された時間を待ってから再度お試しください。",
	}
}

// NewCandidateFetchFailedError は候補取得失敗エラーを生成する。
// 一時的な障害でありリトライ可能。
func NewCandidateFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCandidateFetchFailed,
		Message:  fmt.Sprintf("候補メンターの取得に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
