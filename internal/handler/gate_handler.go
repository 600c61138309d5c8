package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mentorlink/internal/gate"
	"github.com/hitoshi/mentorlink/internal/model"
)

// SessionFinder はゲートハンドラーが必要とするセッション検索インターフェース。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// AccountFinder はゲートハンドラーが必要とするアカウント検索インターフェース。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// RoleProfileChecker はロールプロフィールの存在確認インターフェース。
type RoleProfileChecker interface {
	HasRoleProfile(ctx context.Context, account *model.Account) (bool, error)
}

// GateMetricsRecorder はゲート判定のメトリクス記録インターフェース。
type GateMetricsRecorder interface {
	RecordGateDecision(outcome string)
}

// GateHandler はアクセスゲートのHTTPハンドラー。
// セッションミドルウェアの外に配置する。未認証の訪問者にも
// 401ではなく「サインインへリダイレクト」という決定を返すため。
type GateHandler struct {
	sessions SessionFinder
	accounts AccountFinder
	profiles RoleProfileChecker
	metrics  GateMetricsRecorder
}

// NewGateHandler はGateHandlerを生成する。
// metricsはnilでもよい（記録なし）。
func NewGateHandler(sessions SessionFinder, accounts AccountFinder, profiles RoleProfileChecker, metrics GateMetricsRecorder) *GateHandler {
	return &GateHandler{
		sessions: sessions,
		accounts: accounts,
		profiles: profiles,
		metrics:  metrics,
	}
}

// gateResponse はゲート判定のJSON表現。
type gateResponse struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

// Decide は要求ゾーンへのアクセス可否を判定する。
// GET /api/gate?zone=public|onboarding|app
// SPAのルーターが遷移前に問い合わせ、Redirectの値をそのまま遷移先に使う。
func (h *GateHandler) Decide(w http.ResponseWriter, r *http.Request) {
	zone, ok := gate.ParseZone(r.URL.Query().Get("zone"))
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_ZONE",
			Message:  "無効なゾーンです。",
			Category: "validation",
			Action:   "zone には public、onboarding、app のいずれかを指定してください。",
		})
		return
	}

	session, account, hasProfile, err := h.visitorContext(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	decision := gate.Decide(session, account, hasProfile, zone)

	if h.metrics != nil {
		outcome := "allow"
		if !decision.Allow {
			outcome = string(decision.Redirect)
		}
		h.metrics.RecordGateDecision(outcome)
	}

	writeJSONResponse(w, http.StatusOK, gateResponse{
		Allow:    decision.Allow,
		Redirect: string(decision.Redirect),
	})
}

// visitorContext はCookieから訪問者のセッション・アカウント・プロフィール状態を解決する。
// Cookieがない、またはセッションが無効な場合はすべてゼロ値で返す
// （ゲートは匿名訪問者として分類する）。
func (h *GateHandler) visitorContext(r *http.Request) (*model.Session, *model.Account, bool, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil, false, nil
	}

	session, err := h.sessions.FindByID(r.Context(), cookie.Value)
	if err != nil {
		return nil, nil, false, err
	}
	if session == nil {
		return nil, nil, false, nil
	}

	account, err := h.accounts.FindByID(r.Context(), session.AccountID)
	if err != nil {
		return nil, nil, false, err
	}
	if account == nil {
		return session, nil, false, nil
	}

	hasProfile, err := h.profiles.HasRoleProfile(r.Context(), account)
	if err != nil {
		return nil, nil, false, err
	}

	return session, account, hasProfile, nil
}
