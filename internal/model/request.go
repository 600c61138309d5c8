package model

import "time"

// RequestStatus はメンターシップリクエストの状態を表す。
// 遷移は pending → accepted または pending → declined のみ。
// accepted / declined は終端状態でイミュータブル。
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

// ResponseOutcome はメンターによる応答の種別を表す。
type ResponseOutcome string

const (
	OutcomeAccept  ResponseOutcome = "accept"
	OutcomeDecline ResponseOutcome = "decline"
)

// Request はメンティーからメンターへのメンターシップリクエストを表す。
// 不変条件: 同一ペア (mentee_id, mentor_id) に対して pending は同時に最大1件。
// 作成はメンティー側のみ、状態遷移はメンター側のみが行う。
type Request struct {
	ID           string
	MenteeID     string
	MentorID     string
	HelpType     HelpType
	Context      string
	KeyQuestions []string
	Status       RequestStatus
	CreatedAt    time.Time
	RespondedAt  *time.Time
}

// PairKey はペア単位の排他制御と導出ビューのキーを返す。
// ペアは (mentee, mentor) の組で一意に識別される。
func (r *Request) PairKey() string {
	return PairKey(r.MenteeID, r.MentorID)
}

// PairKey はメンティーIDとメンターIDからペアキーを構築する。
func PairKey(menteeID, mentorID string) string {
	return menteeID + "/" + mentorID
}

// Match は承認済みリクエストから導出される読み取り専用のマッチビュー。
// 独立した永続エンティティではなく、status=accepted のRequestの射影。
type Match struct {
	RequestID     string
	MenteeID      string
	MentorID      string
	HelpType      HelpType
	CounterpartID string // 閲覧者から見た相手のアカウントID
	MatchedAt     time.Time
}
