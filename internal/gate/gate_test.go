package gate

import (
	"testing"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func validSession() *model.Session {
	return &model.Session{
		ID:        "session-1",
		AccountID: "account-1",
		ExpiresAt: testNow.Add(1 * time.Hour),
		CreatedAt: testNow.Add(-1 * time.Hour),
	}
}

func expiredSession() *model.Session {
	return &model.Session{
		ID:        "session-2",
		AccountID: "account-1",
		ExpiresAt: testNow.Add(-1 * time.Minute),
		CreatedAt: testNow.Add(-2 * time.Hour),
	}
}

func accountWithRole(role model.Role) *model.Account {
	return &model.Account{
		ID:    "account-1",
		Email: "mentee@example.com",
		Role:  role,
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name           string
		session        *model.Session
		account        *model.Account
		hasRoleProfile bool
		zone           Zone
		wantAllow      bool
		wantRedirect   Target
	}{
		{
			name:      "匿名訪問者は公開ゾーンを閲覧できる",
			session:   nil,
			zone:      ZonePublic,
			wantAllow: true,
		},
		{
			name:         "匿名訪問者はアプリゾーンからサインインへリダイレクトされる",
			session:      nil,
			zone:         ZoneApp,
			wantRedirect: TargetSignIn,
		},
		{
			name:         "匿名訪問者はオンボーディングゾーンからサインインへリダイレクトされる",
			session:      nil,
			zone:         ZoneOnboarding,
			wantRedirect: TargetSignIn,
		},
		{
			name:         "期限切れセッションは匿名と同一に扱う",
			session:      expiredSession(),
			account:      accountWithRole(model.RoleMentee),
			zone:         ZoneApp,
			wantRedirect: TargetSignIn,
		},
		{
			name:         "ロール未選択のアカウントはアプリからロール選択へリダイレクトされる",
			session:      validSession(),
			account:      accountWithRole(model.RoleUnset),
			zone:         ZoneApp,
			wantRedirect: TargetRoleSelect,
		},
		{
			name:      "ロール未選択のアカウントはオンボーディングゾーンを閲覧できる",
			session:   validSession(),
			account:   accountWithRole(model.RoleUnset),
			zone:      ZoneOnboarding,
			wantAllow: true,
		},
		{
			name:           "ロール選択済みプロフィール未登録はアプリからオンボーディングへリダイレクトされる",
			session:        validSession(),
			account:        accountWithRole(model.RoleMentee),
			hasRoleProfile: false,
			zone:           ZoneApp,
			wantRedirect:   TargetOnboarding,
		},
		{
			name:           "プロフィール完了済みはアプリを閲覧できる",
			session:        validSession(),
			account:        accountWithRole(model.RoleMentor),
			hasRoleProfile: true,
			zone:           ZoneApp,
			wantAllow:      true,
		},
		{
			name:           "プロフィール完了済みはオンボーディングからアプリホームへリダイレクトされる",
			session:        validSession(),
			account:        accountWithRole(model.RoleMentor),
			hasRoleProfile: true,
			zone:           ZoneOnboarding,
			wantRedirect:   TargetAppHome,
		},
		{
			name:           "プロフィール完了済みは公開ゾーンを閲覧できる",
			session:        validSession(),
			account:        accountWithRole(model.RoleMentee),
			hasRoleProfile: true,
			zone:           ZonePublic,
			wantAllow:      true,
		},
		{
			name:           "認証済み未完了は公開ゾーンを閲覧できる",
			session:        validSession(),
			account:        accountWithRole(model.RoleMentee),
			hasRoleProfile: false,
			zone:           ZonePublic,
			wantAllow:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideAt(tt.session, tt.account, tt.hasRoleProfile, tt.zone, testNow)

			if got.Allow != tt.wantAllow {
				t.Errorf("Allow = %v, want %v", got.Allow, tt.wantAllow)
			}
			if got.Redirect != tt.wantRedirect {
				t.Errorf("Redirect = %q, want %q", got.Redirect, tt.wantRedirect)
			}
		})
	}
}

func TestDecide_Idempotent(t *testing.T) {
	session := validSession()
	account := accountWithRole(model.RoleMentee)

	first := decideAt(session, account, false, ZoneApp, testNow)
	for i := 0; i < 10; i++ {
		got := decideAt(session, account, false, ZoneApp, testNow)
		if got != first {
			t.Fatalf("decision changed on evaluation %d: %+v != %+v", i, got, first)
		}
	}
}

func TestParseZone(t *testing.T) {
	tests := []struct {
		input  string
		want   Zone
		wantOK bool
	}{
		{"public", ZonePublic, true},
		{"onboarding", ZoneOnboarding, true},
		{"app", ZoneApp, true},
		{"", "", false},
		{"admin", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseZone(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseZone(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
