package model

import "time"

// HelpType はメンターシップで提供・要求されるヘルプの種別を表す。
type HelpType string

const (
	HelpTypeResumeReview  HelpType = "resume_review"
	HelpTypeMockInterview HelpType = "mock_interview"
	HelpTypeCareerAdvice  HelpType = "career_advice"
	HelpTypeSocialAdvice  HelpType = "social_advice"
)

// ParseHelpType は文字列からHelpTypeを解析する。
func ParseHelpType(s string) (HelpType, bool) {
	switch HelpType(s) {
	case HelpTypeResumeReview, HelpTypeMockInterview, HelpTypeCareerAdvice, HelpTypeSocialAdvice:
		return HelpType(s), true
	default:
		return "", false
	}
}

// ParseHelpTypes は文字列スライスからHelpTypeスライスを解析する。
// 1つでも無効な値があればfalseを返す。
func ParseHelpTypes(ss []string) ([]HelpType, bool) {
	hts := make([]HelpType, 0, len(ss))
	for _, s := range ss {
		ht, ok := ParseHelpType(s)
		if !ok {
			return nil, false
		}
		hts = append(hts, ht)
	}
	return hts, true
}

// MentorProfile はメンターのロールプロフィールを表す。
// このレコードの存在がメンターの「プロフィール完了」の定義。
type MentorProfile struct {
	ID                 string
	AccountID          string
	Industry           string
	JobTitle           string
	HelpTypesOffered   []HelpType
	Interests          []string
	PictureURL         string
	MaxRequestsPerWeek int
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MenteeProfile はメンティーのロールプロフィールを表す。
// このレコードの存在がメンティーの「プロフィール完了」の定義。
type MenteeProfile struct {
	ID         string
	AccountID  string
	Industry   string
	Goals      string
	Background string
	HelpNeeded []HelpType
	Interests  []string
	PictureURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Candidate はメンティーに提示される候補メンターの読み取り専用射影。
// フィードはこれを永続化せず、ページ単位で取得する。
type Candidate struct {
	AccountID        string
	DisplayName      string
	Industry         string
	JobTitle         string
	HelpTypesOffered []HelpType
	Interests        []string
	PictureURL       string
	CreatedAt        time.Time
}
