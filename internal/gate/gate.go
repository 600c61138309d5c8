// Package gate は保護ビューの表示可否を決定するアクセスゲートを提供する。
//
// Decideは純粋関数であり、同一入力に対して常に同一の決定を返す。
// 副作用や隠れた状態を持たないため、ロックは不要で何度評価してもよい。
// 各ビューのガードに散在していたリダイレクト判定はすべてここに集約され、
// ビュー側はDecisionの出力をそのまま描画するだけでよい。
package gate

import (
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

// Zone はナビゲーションのアクセス階層を表す。
type Zone string

const (
	// ZonePublic は未認証でも閲覧できる公開ゾーン。
	ZonePublic Zone = "public"
	// ZoneOnboarding はロール選択とプロフィール登録のゾーン。
	ZoneOnboarding Zone = "onboarding"
	// ZoneApp は認証とプロフィール完了が必要なアプリ本体のゾーン。
	ZoneApp Zone = "app"
)

// ParseZone は文字列からZoneを解析する。
func ParseZone(s string) (Zone, bool) {
	switch Zone(s) {
	case ZonePublic, ZoneOnboarding, ZoneApp:
		return Zone(s), true
	default:
		return "", false
	}
}

// Target はリダイレクト先を表す。
type Target string

const (
	// TargetSignIn はサインインページ。
	TargetSignIn Target = "signin"
	// TargetRoleSelect はロール選択ページ。
	TargetRoleSelect Target = "role_select"
	// TargetOnboarding はロール別オンボーディングページ。
	TargetOnboarding Target = "onboarding"
	// TargetAppHome はアプリのホームページ。
	TargetAppHome Target = "app_home"
)

// Decision はアクセスゲートの決定を表す。
// Allowがfalseの場合、Redirectに遷移先が設定される。
type Decision struct {
	Allow    bool
	Redirect Target
}

// visitorState は訪問者の認証・プロフィール状態の内部分類。
type visitorState int

const (
	// anonymous はセッションなし。
	anonymous visitorState = iota
	// authenticatedIncomplete はセッションありだがロール未選択
	// またはロールプロフィール未登録。
	authenticatedIncomplete
	// authenticatedComplete はロールプロフィール登録済み。
	authenticatedComplete
)

// classify はセッションとアカウントの状態から訪問者状態を分類する。
// 期限切れセッションはセッションなしと同一に扱う。
func classify(session *model.Session, account *model.Account, hasRoleProfile bool, now time.Time) visitorState {
	if session == nil || !session.ExpiresAt.After(now) {
		return anonymous
	}
	if account == nil || account.Role == model.RoleUnset || !hasRoleProfile {
		return authenticatedIncomplete
	}
	return authenticatedComplete
}

// Decide は訪問者が要求ゾーンを閲覧できるかを決定する。
//
//   - 未認証 + 保護ゾーン → サインインへリダイレクト
//   - 認証済み・ロール未選択 + app → ロール選択へリダイレクト
//   - 認証済み・プロフィール未登録 + app → オンボーディングへリダイレクト
//   - プロフィール完了 + onboarding → アプリホームへリダイレクト（二重オンボーディング防止）
//   - それ以外 → 許可
//
// AuthenticatedIncomplete → AuthenticatedComplete の遷移はロールプロフィールの
// 作成成功時にのみ発生し、スコープ内に逆方向の遷移は存在しない。
func Decide(session *model.Session, account *model.Account, hasRoleProfile bool, zone Zone) Decision {
	return decideAt(session, account, hasRoleProfile, zone, time.Now())
}

// decideAt は基準時刻を固定してDecideを評価する。テスト用。
func decideAt(session *model.Session, account *model.Account, hasRoleProfile bool, zone Zone, now time.Time) Decision {
	state := classify(session, account, hasRoleProfile, now)

	switch state {
	case anonymous:
		if zone == ZonePublic {
			return Decision{Allow: true}
		}
		return Decision{Redirect: TargetSignIn}

	case authenticatedIncomplete:
		switch zone {
		case ZonePublic, ZoneOnboarding:
			return Decision{Allow: true}
		default:
			// app: ロール未選択ならロール選択へ、選択済みならオンボーディングへ
			if account == nil || account.Role == model.RoleUnset {
				return Decision{Redirect: TargetRoleSelect}
			}
			return Decision{Redirect: TargetOnboarding}
		}

	default: // authenticatedComplete
		if zone == ZoneOnboarding {
			// 完了済みロールのオンボーディング再入場は許可しない
			return Decision{Redirect: TargetAppHome}
		}
		return Decision{Allow: true}
	}
}
