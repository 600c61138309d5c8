// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力の自由記述テキスト（リクエストの
// コンテキスト、メンティーの目標・経歴など）をサニタイズし、
// 格納型XSSなどのセキュリティリスクから閲覧者を保護する。
// bluemondayのStrictPolicyにより、HTMLタグはすべて除去される。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由記述テキストのサニタイズ機能のインターフェースを定義する。
// プロフィール作成時とリクエスト作成時の保存前に使用される。
type TextSanitizerService interface {
	// Sanitize はテキストからHTMLタグをすべて除去して返す。
	// 前後の空白もトリムする。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeAll はスライスの各要素をサニタイズし、
	// 空になった要素を取り除いて返す。
	SanitizeAll(raw []string) []string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// 自由記述フィールドはプレーンテキストとして扱うため、
// 許可タグなしのStrictPolicyを使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからHTMLタグをすべて除去して返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// SanitizeAll はスライスの各要素をサニタイズし、空になった要素を取り除いて返す。
func (s *textSanitizer) SanitizeAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		cleaned := s.Sanitize(r)
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
