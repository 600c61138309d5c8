package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

// --- モック ---

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*model.Request

	findByIDFn             func(ctx context.Context, id string) (*model.Request, error)
	createPendingFn        func(ctx context.Context, request *model.Request) error
	existsPendingForPairFn func(ctx context.Context, menteeID, mentorID string) (bool, error)
	markRespondedFn        func(ctx context.Context, requestID string, status model.RequestStatus, respondedAt time.Time) (bool, error)
	listBySubjectFn        func(ctx context.Context, subjectID string) ([]*model.Request, error)
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.Request)}
}

func (m *mockRequestRepo) FindByID(ctx context.Context, id string) (*model.Request, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (m *mockRequestRepo) CreatePending(ctx context.Context, request *model.Request) error {
	if m.createPendingFn != nil {
		return m.createPendingFn(ctx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// 部分一意インデックスの再現: 同一ペアのpendingはConflict
	for _, existing := range m.requests {
		if existing.Status == model.RequestStatusPending &&
			existing.MenteeID == request.MenteeID && existing.MentorID == request.MentorID {
			return model.NewRequestAlreadyPendingError()
		}
	}
	cp := *request
	m.requests[request.ID] = &cp
	return nil
}

func (m *mockRequestRepo) ExistsPendingForPair(ctx context.Context, menteeID, mentorID string) (bool, error) {
	if m.existsPendingForPairFn != nil {
		return m.existsPendingForPairFn(ctx, menteeID, mentorID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.Status == model.RequestStatusPending &&
			existing.MenteeID == menteeID && existing.MentorID == mentorID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRequestRepo) MarkResponded(ctx context.Context, requestID string, status model.RequestStatus, respondedAt time.Time) (bool, error) {
	if m.markRespondedFn != nil {
		return m.markRespondedFn(ctx, requestID, status, respondedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.Status != model.RequestStatusPending {
		return false, nil
	}
	req.Status = status
	req.RespondedAt = &respondedAt
	return true, nil
}

func (m *mockRequestRepo) ListBySubject(ctx context.Context, subjectID string) ([]*model.Request, error) {
	if m.listBySubjectFn != nil {
		return m.listBySubjectFn(ctx, subjectID)
	}
	return nil, nil
}

type mockMenteeFinder struct {
	findFn func(ctx context.Context, accountID string) (*model.MenteeProfile, error)
}

func (m *mockMenteeFinder) FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error) {
	return m.findFn(ctx, accountID)
}

type mockMentorFinder struct {
	findFn func(ctx context.Context, accountID string) (*model.MentorProfile, error)
}

func (m *mockMentorFinder) FindByAccountID(ctx context.Context, accountID string) (*model.MentorProfile, error) {
	return m.findFn(ctx, accountID)
}

// passthroughSanitizer はサニタイズを素通しするテスト用実装。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string       { return raw }
func (passthroughSanitizer) SanitizeAll(raw []string) []string { return raw }

type recordingMetrics struct {
	mu        sync.Mutex
	proposals []string
	responses []string
}

func (r *recordingMetrics) RecordProposal(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proposals = append(r.proposals, result)
}

func (r *recordingMetrics) RecordResponse(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, outcome)
}

func menteeExists(accountID string) *mockMenteeFinder {
	return &mockMenteeFinder{
		findFn: func(ctx context.Context, id string) (*model.MenteeProfile, error) {
			if id == accountID {
				return &model.MenteeProfile{ID: "mp-1", AccountID: id}, nil
			}
			return nil, nil
		},
	}
}

func mentorExists(accountID string) *mockMentorFinder {
	return &mockMentorFinder{
		findFn: func(ctx context.Context, id string) (*model.MentorProfile, error) {
			if id == accountID {
				return &model.MentorProfile{ID: "mt-1", AccountID: id, Active: true}, nil
			}
			return nil, nil
		},
	}
}

func newTestService(repo *mockRequestRepo, metrics MetricsRecorder) *Service {
	return NewService(repo, menteeExists("mentee-1"), mentorExists("mentor-1"), passthroughSanitizer{}, metrics)
}

// --- Propose ---

func TestPropose_CreatesPendingRequest(t *testing.T) {
	repo := newMockRequestRepo()
	m := &recordingMetrics{}
	svc := newTestService(repo, m)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "resume_review",
		"転職活動中です", []string{"レジュメの構成について"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == "" {
		t.Error("expected generated request ID")
	}
	if created.Status != model.RequestStatusPending {
		t.Errorf("status = %q, want %q", created.Status, model.RequestStatusPending)
	}
	if created.HelpType != model.HelpTypeResumeReview {
		t.Errorf("helpType = %q, want %q", created.HelpType, model.HelpTypeResumeReview)
	}
	if created.RespondedAt != nil {
		t.Error("respondedAt should be nil for a pending request")
	}

	if len(m.proposals) != 1 || m.proposals[0] != "created" {
		t.Errorf("proposal metrics = %v, want [created]", m.proposals)
	}
}

func TestPropose_DuplicatePending_ReturnsConflict(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	if _, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil); err != nil {
		t.Fatalf("first propose failed: %v", err)
	}

	_, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
	assertAPIErrorCode(t, err, model.ErrCodeRequestAlreadyPending)
}

func TestPropose_InvalidHelpType(t *testing.T) {
	svc := newTestService(newMockRequestRepo(), nil)

	_, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "life_advice", "", nil)
	assertAPIErrorCode(t, err, model.ErrCodeInvalidHelpType)
}

func TestPropose_SelfPropose_Forbidden(t *testing.T) {
	svc := newTestService(newMockRequestRepo(), nil)

	_, err := svc.Propose(context.Background(), "mentee-1", "mentee-1", "career_advice", "", nil)
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestPropose_NonMentee_Forbidden(t *testing.T) {
	svc := newTestService(newMockRequestRepo(), nil)

	_, err := svc.Propose(context.Background(), "someone-else", "mentor-1", "career_advice", "", nil)
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestPropose_UnknownMentor_NotFound(t *testing.T) {
	svc := newTestService(newMockRequestRepo(), nil)

	_, err := svc.Propose(context.Background(), "mentee-1", "unknown-mentor", "career_advice", "", nil)
	assertAPIErrorCode(t, err, model.ErrCodeProfileNotFound)
}

func TestPropose_DeclinedDoesNotBlockReproposal(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "mock_interview", "", nil)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	if _, err := svc.Respond(context.Background(), created.ID, "mentor-1", "decline"); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	// declineは終端だが、同一ペアの新規proposeはブロックしない
	if _, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "mock_interview", "", nil); err != nil {
		t.Fatalf("re-proposal after decline should succeed, got %v", err)
	}
}

func TestPropose_ConcurrentDoublePropose_ExactlyOneSucceeds(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	conflicts := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeRequestAlreadyPending {
			conflicts++
		}
	}

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}
}

// --- Respond ---

func TestRespond_AcceptTransitionsToTerminal(t *testing.T) {
	repo := newMockRequestRepo()
	m := &recordingMetrics{}
	svc := newTestService(repo, m)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	updated, err := svc.Respond(context.Background(), created.ID, "mentor-1", "accept")
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if updated.Status != model.RequestStatusAccepted {
		t.Errorf("status = %q, want %q", updated.Status, model.RequestStatusAccepted)
	}
	if updated.RespondedAt == nil {
		t.Error("respondedAt should be set after responding")
	}
	if len(m.responses) != 1 || m.responses[0] != "accept" {
		t.Errorf("response metrics = %v, want [accept]", m.responses)
	}
}

func TestRespond_NotFound(t *testing.T) {
	svc := newTestService(newMockRequestRepo(), nil)

	_, err := svc.Respond(context.Background(), "missing", "mentor-1", "accept")
	assertAPIErrorCode(t, err, model.ErrCodeRequestNotFound)
}

func TestRespond_WrongMentor_Forbidden(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	_, err = svc.Respond(context.Background(), created.ID, "other-mentor", "accept")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestRespond_InvalidOutcome(t *testing.T) {
	svc := newTestService(newMockRequestRepo(), nil)

	_, err := svc.Respond(context.Background(), "any", "mentor-1", "maybe")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidOutcome)
}

func TestRespond_SecondResponse_AlreadyResponded(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	if _, err := svc.Respond(context.Background(), created.ID, "mentor-1", "accept"); err != nil {
		t.Fatalf("first respond failed: %v", err)
	}

	// 2回目はサイレント成功ではなく明示的エラー
	_, err = svc.Respond(context.Background(), created.ID, "mentor-1", "decline")
	assertAPIErrorCode(t, err, model.ErrCodeAlreadyResponded)
}

func TestRespond_ConcurrentDoubleRespond_ExactlyOneTransition(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			outcome := "accept"
			if idx%2 == 1 {
				outcome = "decline"
			}
			_, errs[idx] = svc.Respond(context.Background(), created.ID, "mentor-1", outcome)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}

	final, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("findByID failed: %v", err)
	}
	if final.Status == model.RequestStatusPending {
		t.Error("request should have transitioned to a terminal state")
	}
}

// --- GetRequest ---

func TestGetRequest_UninvolvedSubject_Forbidden(t *testing.T) {
	repo := newMockRequestRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Propose(context.Background(), "mentee-1", "mentor-1", "career_advice", "", nil)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	if _, err := svc.GetRequest(context.Background(), created.ID, "mentee-1"); err != nil {
		t.Errorf("mentee should see own request, got %v", err)
	}
	if _, err := svc.GetRequest(context.Background(), created.ID, "mentor-1"); err != nil {
		t.Errorf("mentor should see addressed request, got %v", err)
	}

	_, err = svc.GetRequest(context.Background(), created.ID, "stranger")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

// --- ListForSubject ---

func TestListForSubject_PartitionsAndOrders(t *testing.T) {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	t1 := base.Add(1 * time.Hour)
	t2 := base.Add(2 * time.Hour)
	t3 := base.Add(3 * time.Hour)

	subject := "account-1"
	repo := newMockRequestRepo()
	// ListBySubjectは作成日時昇順で返す契約
	repo.listBySubjectFn = func(ctx context.Context, subjectID string) ([]*model.Request, error) {
		return []*model.Request{
			{ID: "r1", MenteeID: subject, MentorID: "m1", Status: model.RequestStatusPending, CreatedAt: base},
			{ID: "r2", MenteeID: "other", MentorID: subject, Status: model.RequestStatusPending, CreatedAt: t1},
			{ID: "r3", MenteeID: subject, MentorID: "m2", Status: model.RequestStatusAccepted, CreatedAt: base, RespondedAt: &t2},
			{ID: "r4", MenteeID: "other2", MentorID: subject, Status: model.RequestStatusAccepted, CreatedAt: base, RespondedAt: &t3},
			{ID: "r5", MenteeID: subject, MentorID: "m3", Status: model.RequestStatusDeclined, CreatedAt: base, RespondedAt: &t1},
		}, nil
	}
	svc := newTestService(repo, nil)

	book, err := svc.ListForSubject(context.Background(), subject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(book.PendingOutgoing) != 1 || book.PendingOutgoing[0].ID != "r1" {
		t.Errorf("pendingOutgoing = %v, want [r1]", requestIDs(book.PendingOutgoing))
	}
	if len(book.PendingIncoming) != 1 || book.PendingIncoming[0].ID != "r2" {
		t.Errorf("pendingIncoming = %v, want [r2]", requestIDs(book.PendingIncoming))
	}

	// マッチは新しい順。declinedは含まれない。
	if len(book.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(book.Matches))
	}
	if book.Matches[0].RequestID != "r4" || book.Matches[1].RequestID != "r3" {
		t.Errorf("match order = [%s %s], want [r4 r3]", book.Matches[0].RequestID, book.Matches[1].RequestID)
	}

	// counterpartは閲覧者から見た相手
	if book.Matches[0].CounterpartID != "other2" {
		t.Errorf("counterpart = %q, want %q", book.Matches[0].CounterpartID, "other2")
	}
	if book.Matches[1].CounterpartID != "m2" {
		t.Errorf("counterpart = %q, want %q", book.Matches[1].CounterpartID, "m2")
	}
}

// --- ヘルパー ---

func requestIDs(reqs []*model.Request) []string {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}
