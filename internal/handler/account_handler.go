package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/profile"
)

// ProfileServiceInterface はアカウント・プロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	GetAccount(ctx context.Context, subjectID string) (*model.Account, error)
	SetRole(ctx context.Context, subjectID, rawRole string) (*model.Account, error)
	HasRoleProfile(ctx context.Context, account *model.Account) (bool, error)
	GetMentorProfile(ctx context.Context, subjectID string) (*model.MentorProfile, error)
	GetMenteeProfile(ctx context.Context, subjectID string) (*model.MenteeProfile, error)
	CreateMentorProfile(ctx context.Context, subjectID string, attrs profile.MentorProfileAttrs) (*model.MentorProfile, error)
	CreateMenteeProfile(ctx context.Context, subjectID string, attrs profile.MenteeProfileAttrs) (*model.MenteeProfile, error)
}

// AccountHandler はアカウント管理のHTTPハンドラー。
type AccountHandler struct {
	service ProfileServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service ProfileServiceInterface) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// accountResponse はアカウントのJSON表現。
type accountResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// setRoleRequest はロール設定のリクエストボディ。
type setRoleRequest struct {
	Role string `json:"role"`
}

// Me は現在のアカウント情報を返す。
// GET /api/accounts/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponse(account))
}

// SetRole はアカウントのロールを設定する。
// PUT /api/accounts/me/role
// ロールは1回だけ設定可能で、再設定は409 Conflictを返す。
func (h *AccountHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	account, err := h.service.SetRole(r.Context(), accountID, req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponse(account))
}

// toAccountResponse はアカウントをJSON表現に変換する。
func toAccountResponse(account *model.Account) accountResponse {
	return accountResponse{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        string(account.Role),
	}
}

// apiErrorResponse はAPIエラーレスポンスのJSON表現。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は401 Unauthorizedの統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeAccountNotFound, model.ErrCodeProfileNotFound, model.ErrCodeRequestNotFound:
		return http.StatusNotFound
	case model.ErrCodeRoleAlreadySet, model.ErrCodeProfileAlreadyExists,
		model.ErrCodeRequestAlreadyPending, model.ErrCodeAlreadyResponded:
		return http.StatusConflict
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRole, model.ErrCodeInvalidHelpType,
		model.ErrCodeInvalidOutcome, model.ErrCodeInvalidPictureURL:
		return http.StatusBadRequest
	case model.ErrCodeCandidateFetchFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
