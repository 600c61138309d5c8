package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/notification"
)

// NotificationServiceInterface はマッチハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	MatchList(ctx context.Context, subjectID string) ([]notification.MatchEntry, error)
	Threads(ctx context.Context, subjectID string) ([]notification.Thread, error)
}

// MatchHandler はマッチとメッセージスレッドのHTTPハンドラー。
type MatchHandler struct {
	service NotificationServiceInterface
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service NotificationServiceInterface) *MatchHandler {
	return &MatchHandler{
		service: service,
	}
}

// matchResponse はマッチのJSON表現。
type matchResponse struct {
	RequestID          string    `json:"request_id"`
	HelpType           string    `json:"help_type"`
	CounterpartID      string    `json:"counterpart_id"`
	CounterpartName    string    `json:"counterpart_name,omitempty"`
	CounterpartPicture string    `json:"counterpart_picture,omitempty"`
	MatchedAt          time.Time `json:"matched_at"`
}

// threadResponse はメッセージスレッドのJSON表現。
type threadResponse struct {
	ThreadID           string    `json:"thread_id"`
	CounterpartID      string    `json:"counterpart_id"`
	CounterpartName    string    `json:"counterpart_name,omitempty"`
	CounterpartPicture string    `json:"counterpart_picture,omitempty"`
	StartedAt          time.Time `json:"started_at"`
}

// ListMatches は自分のマッチ一覧を相手の表示情報付きで返す。
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	entries, err := h.service.MatchList(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]matchResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, matchResponse{
			RequestID:          entry.RequestID,
			HelpType:           string(entry.HelpType),
			CounterpartID:      entry.CounterpartID,
			CounterpartName:    entry.CounterpartName,
			CounterpartPicture: entry.CounterpartPicture,
			MatchedAt:          entry.MatchedAt,
		})
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"matches": responses,
	})
}

// ListThreads はマッチごとのメッセージスレッド一覧を返す。
// GET /api/messages
func (h *MatchHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	threads, err := h.service.Threads(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		responses = append(responses, threadResponse{
			ThreadID:           t.ThreadID,
			CounterpartID:      t.CounterpartID,
			CounterpartName:    t.CounterpartName,
			CounterpartPicture: t.CounterpartPicture,
			StartedAt:          t.StartedAt,
		})
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"threads": responses,
	})
}
