// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントのロールを表す。
// ロール選択時に1回だけ設定され、以降イミュータブル。
type Role string

const (
	// RoleUnset はロール未選択の初期状態。
	RoleUnset Role = ""
	// RoleMentor はメンター。
	RoleMentor Role = "mentor"
	// RoleMentee はメンティー。
	RoleMentee Role = "mentee"
)

// ParseRole は文字列からRoleを解析する。
// mentor / mentee 以外はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMentor:
		return RoleMentor, true
	case RoleMentee:
		return RoleMentee, true
	default:
		return RoleUnset, false
	}
}

// Account はサービス利用者のアカウントレコードを表す。
// 初回ログイン時に遅延生成される。
type Account struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	AccountID      string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はログインセッションを表す。
// IdentityLinkが所有し、他のコンポーネントからは読み取り専用。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}
