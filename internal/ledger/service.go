package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/repository"
)

// MenteeProfileFinder はリクエスト作成者の検証に必要なインターフェース。
type MenteeProfileFinder interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error)
}

// MentorProfileFinder はリクエスト宛先の検証に必要なインターフェース。
type MentorProfileFinder interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.MentorProfile, error)
}

// TextSanitizer は自由記述フィールドの保存前サニタイズに必要なインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
	SanitizeAll(raw []string) []string
}

// MetricsRecorder は台帳操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordProposal(result string)
	RecordResponse(outcome string)
}

// RequestBook はListForSubjectの結果を表す。
// サブジェクトが関与する全リクエストをロール別の区分に分割したもの。
type RequestBook struct {
	// PendingIncoming はメンターとして受信した保留中リクエスト。
	// 作成日時昇順（先着順レビューのため最古が先頭）。
	PendingIncoming []*model.Request
	// PendingOutgoing はメンティーとして送信した保留中リクエスト。
	// 作成日時昇順。
	PendingOutgoing []*model.Request
	// Matches は承認済みリクエストから導出されるマッチ一覧。
	// 新しいマッチが先頭（応答日時降順）。
	Matches []model.Match
}

// Service はマッチ台帳のサービス層。
//
// 状態機械: ペアごとに None → Pending → {Accepted | Declined}（終端）。
// 不変条件: 同一ペアのPendingは同時に最大1件。ペアロックで操作を直列化し、
// DBの部分一意インデックスが最終防衛線となる。
// 終端状態は新規proposeをブロックしない（declined後の再提案は許可）。
type Service struct {
	requestRepo repository.RequestRepository
	menteeRepo  MenteeProfileFinder
	mentorRepo  MentorProfileFinder
	sanitizer   TextSanitizer
	metrics     MetricsRecorder
	locks       *pairLock
}

// NewService はServiceを生成する。
// metricsはnilでもよい（記録なし）。
func NewService(
	requestRepo repository.RequestRepository,
	menteeRepo MenteeProfileFinder,
	mentorRepo MentorProfileFinder,
	sanitizer TextSanitizer,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		requestRepo: requestRepo,
		menteeRepo:  menteeRepo,
		mentorRepo:  mentorRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
		locks:       newPairLock(),
	}
}

// Propose はメンティーからメンターへの新規リクエストを作成する。
//
// 同一ペアのPendingが既に存在する場合はREQUEST_ALREADY_PENDINGエラーを返す。
// ペアロック下で存在チェックと作成を行うため、並行する二重proposeは
// 決定的に「1件のPending + 1件のConflictエラー」になる。
// 成功時は作成済みレコードをそのまま返す（作成後の再取得は不要）。
func (s *Service) Propose(ctx context.Context, menteeID, mentorID, rawHelpType, contextText string, keyQuestions []string) (*model.Request, error) {
	helpType, ok := model.ParseHelpType(rawHelpType)
	if !ok {
		return nil, model.NewInvalidHelpTypeError(rawHelpType)
	}

	if menteeID == mentorID {
		return nil, model.NewForbiddenError("cannot send a request to yourself")
	}

	// 作成はメンティー側のみ
	menteeProfile, err := s.menteeRepo.FindByAccountID(ctx, menteeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentee profile: %w", err)
	}
	if menteeProfile == nil {
		return nil, model.NewForbiddenError("only mentees can create mentorship requests")
	}

	// 宛先メンターの存在確認
	mentorProfile, err := s.mentorRepo.FindByAccountID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentor profile: %w", err)
	}
	if mentorProfile == nil {
		return nil, model.NewProfileNotFoundError(model.RoleMentor)
	}

	unlock := s.locks.lock(model.PairKey(menteeID, mentorID))
	defer unlock()

	pending, err := s.requestRepo.ExistsPendingForPair(ctx, menteeID, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending request: %w", err)
	}
	if pending {
		s.recordProposal("conflict")
		return nil, model.NewRequestAlreadyPendingError()
	}

	request := &model.Request{
		ID:           uuid.New().String(),
		MenteeID:     menteeID,
		MentorID:     mentorID,
		HelpType:     helpType,
		Context:      s.sanitizer.Sanitize(contextText),
		KeyQuestions: s.sanitizer.SanitizeAll(keyQuestions),
		Status:       model.RequestStatusPending,
		CreatedAt:    time.Now(),
	}

	if err := s.requestRepo.CreatePending(ctx, request); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeRequestAlreadyPending {
			s.recordProposal("conflict")
		}
		return nil, err
	}

	s.recordProposal("created")
	slog.Info("mentorship request created",
		slog.String("request_id", request.ID),
		slog.String("mentee_id", menteeID),
		slog.String("mentor_id", mentorID),
		slog.String("help_type", string(helpType)),
	)

	return request, nil
}

// Respond は保留中リクエストをaccept/declineで終端状態へ遷移させる。
//
//   - リクエストが存在しない → REQUEST_NOT_FOUND
//   - 操作者が宛先メンターでない → FORBIDDEN
//   - 既に応答済み → ALREADY_RESPONDED（サイレント成功にはしない。
//     同一IDへの2回目の呼び出しは必ずこのエラーになる）
//
// 遷移はペアロック下でちょうど1回だけ実行され、
// 成功時は更新済みレコードをそのまま返す。
func (s *Service) Respond(ctx context.Context, requestID, actingMentorID, rawOutcome string) (*model.Request, error) {
	var status model.RequestStatus
	switch model.ResponseOutcome(rawOutcome) {
	case model.OutcomeAccept:
		status = model.RequestStatusAccepted
	case model.OutcomeDecline:
		status = model.RequestStatusDeclined
	default:
		return nil, model.NewInvalidOutcomeError(rawOutcome)
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(requestID)
	}

	// 状態遷移は宛先メンターのみが行える
	if request.MentorID != actingMentorID {
		return nil, model.NewForbiddenError("only the addressed mentor can respond to this request")
	}

	unlock := s.locks.lock(request.PairKey())
	defer unlock()

	if request.Status != model.RequestStatusPending {
		return nil, model.NewAlreadyRespondedError(requestID)
	}

	respondedAt := time.Now()
	transitioned, err := s.requestRepo.MarkResponded(ctx, requestID, status, respondedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to transition request: %w", err)
	}
	if !transitioned {
		// FindByIDとロック獲得の間に別経路で終端化されたケース
		return nil, model.NewAlreadyRespondedError(requestID)
	}

	request.Status = status
	request.RespondedAt = &respondedAt

	s.recordResponse(rawOutcome)
	slog.Info("mentorship request responded",
		slog.String("request_id", requestID),
		slog.String("mentor_id", actingMentorID),
		slog.String("outcome", rawOutcome),
	)

	return request, nil
}

// GetRequest は指定リクエストを取得する。
// サブジェクトがメンティーまたはメンターとして関与していない場合は
// FORBIDDENエラーを返す。
func (s *Service) GetRequest(ctx context.Context, requestID, subjectID string) (*model.Request, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(requestID)
	}

	if request.MenteeID != subjectID && request.MentorID != subjectID {
		return nil, model.NewForbiddenError("you are not involved in this request")
	}

	return request, nil
}

// ListForSubject はサブジェクトが関与する全リクエストを区分して返す。
// マッチは承認済みリクエストからの生の導出ビューであり、
// キャッシュせず呼び出しごとに構築する。
func (s *Service) ListForSubject(ctx context.Context, subjectID string) (*RequestBook, error) {
	requests, err := s.requestRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	book := &RequestBook{}
	for _, req := range requests {
		switch req.Status {
		case model.RequestStatusPending:
			if req.MentorID == subjectID {
				book.PendingIncoming = append(book.PendingIncoming, req)
			} else {
				book.PendingOutgoing = append(book.PendingOutgoing, req)
			}
		case model.RequestStatusAccepted:
			book.Matches = append(book.Matches, deriveMatch(req, subjectID))
		}
	}

	// ListBySubjectは作成日時昇順で返すため、保留リストはそのままでよい。
	// マッチ一覧のみ新しい順に並べ替える。
	sort.Slice(book.Matches, func(i, j int) bool {
		return book.Matches[i].MatchedAt.After(book.Matches[j].MatchedAt)
	})

	return book, nil
}

// deriveMatch は承認済みリクエストからマッチビューを導出する。
func deriveMatch(req *model.Request, subjectID string) model.Match {
	counterpart := req.MentorID
	if subjectID == req.MentorID {
		counterpart = req.MenteeID
	}

	matchedAt := req.CreatedAt
	if req.RespondedAt != nil {
		matchedAt = *req.RespondedAt
	}

	return model.Match{
		RequestID:     req.ID,
		MenteeID:      req.MenteeID,
		MentorID:      req.MentorID,
		HelpType:      req.HelpType,
		CounterpartID: counterpart,
		MatchedAt:     matchedAt,
	}
}

func (s *Service) recordProposal(result string) {
	if s.metrics != nil {
		s.metrics.RecordProposal(result)
	}
}

func (s *Service) recordResponse(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordResponse(outcome)
	}
}
