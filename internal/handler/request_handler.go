package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mentorlink/internal/ledger"
	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/model"
)

// LedgerServiceInterface はリクエストハンドラーが必要とするサービスインターフェース。
type LedgerServiceInterface interface {
	Propose(ctx context.Context, menteeID, mentorID, helpType, contextText string, keyQuestions []string) (*model.Request, error)
	Respond(ctx context.Context, requestID, actingMentorID, outcome string) (*model.Request, error)
	GetRequest(ctx context.Context, requestID, subjectID string) (*model.Request, error)
	ListForSubject(ctx context.Context, subjectID string) (*ledger.RequestBook, error)
}

// RequestHandler はメンターシップリクエストのHTTPハンドラー。
type RequestHandler struct {
	service LedgerServiceInterface
}

// NewRequestHandler はRequestHandlerを生成する。
func NewRequestHandler(service LedgerServiceInterface) *RequestHandler {
	return &RequestHandler{
		service: service,
	}
}

// proposeRequest はリクエスト作成のリクエストボディ。
type proposeRequest struct {
	MentorID     string   `json:"mentor_id"`
	HelpType     string   `json:"help_type"`
	Context      string   `json:"context"`
	KeyQuestions []string `json:"key_questions"`
}

// requestResponse はメンターシップリクエストのJSON表現。
type requestResponse struct {
	ID           string     `json:"id"`
	MenteeID     string     `json:"mentee_id"`
	MentorID     string     `json:"mentor_id"`
	HelpType     string     `json:"help_type"`
	Context      string     `json:"context"`
	KeyQuestions []string   `json:"key_questions"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
}

// requestBookResponse はリクエスト一覧のJSON表現。
type requestBookResponse struct {
	PendingIncoming []requestResponse `json:"pending_incoming"`
	PendingOutgoing []requestResponse `json:"pending_outgoing"`
	Matches         []matchResponse   `json:"matches"`
}

// Propose はメンターシップリクエストを作成する。
// POST /api/requests
// 同一メンターへの保留中リクエストが既に存在する場合は409を返す。
func (h *RequestHandler) Propose(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	if req.MentorID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "mentor_idは必須です。",
			Category: "validation",
			Action:   "送信先のメンターを指定してください。",
		})
		return
	}

	created, err := h.service.Propose(r.Context(), accountID, req.MentorID, req.HelpType, req.Context, req.KeyQuestions)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toRequestResponse(created))
}

// List は自分が関与する全リクエストを区分して返す。
// GET /api/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	book, err := h.service.ListForSubject(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRequestBookResponse(book))
}

// Get は指定リクエストの詳細を返す。
// GET /api/requests/{id}
// 関与していないアカウントからの参照は403を返す。
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	requestID := chi.URLParam(r, "id")

	request, err := h.service.GetRequest(r.Context(), requestID, accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRequestResponse(request))
}

// Accept は保留中リクエストを承認する。
// PATCH /api/requests/{id}/accept
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, string(model.OutcomeAccept))
}

// Decline は保留中リクエストを辞退する。
// PATCH /api/requests/{id}/decline
func (h *RequestHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, string(model.OutcomeDecline))
}

// respond は応答処理の共通実装。
func (h *RequestHandler) respond(w http.ResponseWriter, r *http.Request, outcome string) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	requestID := chi.URLParam(r, "id")

	updated, err := h.service.Respond(r.Context(), requestID, accountID, outcome)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRequestResponse(updated))
}

// toRequestResponse はリクエストをJSON表現に変換する。
func toRequestResponse(req *model.Request) requestResponse {
	return requestResponse{
		ID:           req.ID,
		MenteeID:     req.MenteeID,
		MentorID:     req.MentorID,
		HelpType:     string(req.HelpType),
		Context:      req.Context,
		KeyQuestions: req.KeyQuestions,
		Status:       string(req.Status),
		CreatedAt:    req.CreatedAt,
		RespondedAt:  req.RespondedAt,
	}
}

// toRequestBookResponse はリクエスト区分をJSON表現に変換する。
func toRequestBookResponse(book *ledger.RequestBook) requestBookResponse {
	resp := requestBookResponse{
		PendingIncoming: make([]requestResponse, 0, len(book.PendingIncoming)),
		PendingOutgoing: make([]requestResponse, 0, len(book.PendingOutgoing)),
		Matches:         make([]matchResponse, 0, len(book.Matches)),
	}

	for _, req := range book.PendingIncoming {
		resp.PendingIncoming = append(resp.PendingIncoming, toRequestResponse(req))
	}
	for _, req := range book.PendingOutgoing {
		resp.PendingOutgoing = append(resp.PendingOutgoing, toRequestResponse(req))
	}
	for _, m := range book.Matches {
		resp.Matches = append(resp.Matches, matchResponse{
			RequestID:     m.RequestID,
			HelpType:      string(m.HelpType),
			CounterpartID: m.CounterpartID,
			MatchedAt:     m.MatchedAt,
		})
	}

	return resp
}
