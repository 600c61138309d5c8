package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/model"
)

// FeedServiceInterface は候補フィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	Next(ctx context.Context, subjectID string, pageSize int, helpType model.HelpType) ([]model.Candidate, error)
	Reset(subjectID string)
}

// CandidateHandler は候補メンターフィードのHTTPハンドラー。
type CandidateHandler struct {
	service FeedServiceInterface
}

// NewCandidateHandler はCandidateHandlerを生成する。
func NewCandidateHandler(service FeedServiceInterface) *CandidateHandler {
	return &CandidateHandler{
		service: service,
	}
}

// candidateResponse は候補メンターのJSON表現。
type candidateResponse struct {
	AccountID        string    `json:"account_id"`
	DisplayName      string    `json:"display_name"`
	Industry         string    `json:"industry"`
	JobTitle         string    `json:"job_title"`
	HelpTypesOffered []string  `json:"help_types_offered"`
	Interests        []string  `json:"interests"`
	PictureURL       string    `json:"picture_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// Next は次の候補メンターのページを返す。
// GET /api/candidates?page_size=&help_type=
// 枯渇したフィードは空配列を返す（エラーではない）。
func (h *CandidateHandler) Next(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_PAGE_SIZE",
				Message:  "page_sizeが不正です。",
				Category: "validation",
				Action:   "page_sizeには正の整数を指定してください。",
			})
			return
		}
	}

	var helpType model.HelpType
	if raw := r.URL.Query().Get("help_type"); raw != "" {
		parsed, ok := model.ParseHelpType(raw)
		if !ok {
			handleServiceError(w, model.NewInvalidHelpTypeError(raw))
			return
		}
		helpType = parsed
	}

	candidates, err := h.service.Next(r.Context(), accountID, pageSize, helpType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]candidateResponse, 0, len(candidates))
	for _, c := range candidates {
		responses = append(responses, candidateResponse{
			AccountID:        c.AccountID,
			DisplayName:      c.DisplayName,
			Industry:         c.Industry,
			JobTitle:         c.JobTitle,
			HelpTypesOffered: helpTypesToStrings(c.HelpTypesOffered),
			Interests:        c.Interests,
			PictureURL:       c.PictureURL,
			CreatedAt:        c.CreatedAt,
		})
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"candidates": responses,
	})
}

// Reset は候補フィードのカーソルを先頭に戻す。
// POST /api/candidates/reset
func (h *CandidateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	h.service.Reset(accountID)
	w.WriteHeader(http.StatusNoContent)
}
