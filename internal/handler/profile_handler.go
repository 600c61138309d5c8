package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/profile"
)

// ProfileHandler はロールプロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

// mentorProfileResponse はメンタープロフィールのJSON表現。
type mentorProfileResponse struct {
	ID                 string    `json:"id"`
	AccountID          string    `json:"account_id"`
	Industry           string    `json:"industry"`
	JobTitle           string    `json:"job_title"`
	HelpTypesOffered   []string  `json:"help_types_offered"`
	Interests          []string  `json:"interests"`
	PictureURL         string    `json:"picture_url"`
	MaxRequestsPerWeek int       `json:"max_requests_per_week"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

// menteeProfileResponse はメンティープロフィールのJSON表現。
type menteeProfileResponse struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Industry   string    `json:"industry"`
	Goals      string    `json:"goals"`
	Background string    `json:"background"`
	HelpNeeded []string  `json:"help_needed"`
	Interests  []string  `json:"interests"`
	PictureURL string    `json:"picture_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// createMentorProfileRequest はメンタープロフィール作成のリクエストボディ。
type createMentorProfileRequest struct {
	Industry           string   `json:"industry"`
	JobTitle           string   `json:"job_title"`
	HelpTypesOffered   []string `json:"help_types_offered"`
	Interests          []string `json:"interests"`
	PictureURL         string   `json:"picture_url"`
	MaxRequestsPerWeek int      `json:"max_requests_per_week"`
}

// createMenteeProfileRequest はメンティープロフィール作成のリクエストボディ。
type createMenteeProfileRequest struct {
	Industry   string   `json:"industry"`
	Goals      string   `json:"goals"`
	Background string   `json:"background"`
	HelpNeeded []string `json:"help_needed"`
	Interests  []string `json:"interests"`
	PictureURL string   `json:"picture_url"`
}

// GetMentorProfile は自分のメンタープロフィールを返す。
// GET /api/profiles/mentor
// 未登録の場合は404を返す（フロントエンドはオンボーディングへ誘導する）。
func (h *ProfileHandler) GetMentorProfile(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	p, err := h.service.GetMentorProfile(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toMentorProfileResponse(p))
}

// CreateMentorProfile はメンタープロフィールを作成する。
// POST /api/profiles/mentor
func (h *ProfileHandler) CreateMentorProfile(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createMentorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	p, err := h.service.CreateMentorProfile(r.Context(), accountID, profile.MentorProfileAttrs{
		Industry:           req.Industry,
		JobTitle:           req.JobTitle,
		HelpTypesOffered:   req.HelpTypesOffered,
		Interests:          req.Interests,
		PictureURL:         req.PictureURL,
		MaxRequestsPerWeek: req.MaxRequestsPerWeek,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toMentorProfileResponse(p))
}

// GetMenteeProfile は自分のメンティープロフィールを返す。
// GET /api/profiles/mentee
func (h *ProfileHandler) GetMenteeProfile(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	p, err := h.service.GetMenteeProfile(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toMenteeProfileResponse(p))
}

// CreateMenteeProfile はメンティープロフィールを作成する。
// POST /api/profiles/mentee
func (h *ProfileHandler) CreateMenteeProfile(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createMenteeProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	p, err := h.service.CreateMenteeProfile(r.Context(), accountID, profile.MenteeProfileAttrs{
		Industry:   req.Industry,
		Goals:      req.Goals,
		Background: req.Background,
		HelpNeeded: req.HelpNeeded,
		Interests:  req.Interests,
		PictureURL: req.PictureURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toMenteeProfileResponse(p))
}

// toMentorProfileResponse はメンタープロフィールをJSON表現に変換する。
func toMentorProfileResponse(p *model.MentorProfile) mentorProfileResponse {
	return mentorProfileResponse{
		ID:                 p.ID,
		AccountID:          p.AccountID,
		Industry:           p.Industry,
		JobTitle:           p.JobTitle,
		HelpTypesOffered:   helpTypesToStrings(p.HelpTypesOffered),
		Interests:          p.Interests,
		PictureURL:         p.PictureURL,
		MaxRequestsPerWeek: p.MaxRequestsPerWeek,
		Active:             p.Active,
		CreatedAt:          p.CreatedAt,
	}
}

// toMenteeProfileResponse はメンティープロフィールをJSON表現に変換する。
func toMenteeProfileResponse(p *model.MenteeProfile) menteeProfileResponse {
	return menteeProfileResponse{
		ID:         p.ID,
		AccountID:  p.AccountID,
		Industry:   p.Industry,
		Goals:      p.Goals,
		Background: p.Background,
		HelpNeeded: helpTypesToStrings(p.HelpNeeded),
		Interests:  p.Interests,
		PictureURL: p.PictureURL,
		CreatedAt:  p.CreatedAt,
	}
}

// helpTypesToStrings はHelpTypeスライスを文字列スライスに変換する。
func helpTypesToStrings(hts []model.HelpType) []string {
	ss := make([]string, 0, len(hts))
	for _, ht := range hts {
		ss = append(ss, string(ht))
	}
	return ss
}
