package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/mentorlink/internal/model"
)

// PostgresRequestRepo はPostgreSQLを使用したメンターシップリクエストリポジトリ。
type PostgresRequestRepo struct {
	db *sql.DB
}

// NewPostgresRequestRepo はPostgresRequestRepoを生成する。
func NewPostgresRequestRepo(db *sql.DB) *PostgresRequestRepo {
	return &PostgresRequestRepo{db: db}
}

const requestColumns = `id, mentee_id, mentor_id, help_type, context, key_questions, status, created_at, responded_at`

// scanRequest は1行分のリクエストをスキャンする。
func scanRequest(row interface {
	Scan(dest ...interface{}) error
}) (*model.Request, error) {
	req := &model.Request{}
	var helpType, status string
	var keyQuestions []string
	var respondedAt sql.NullTime

	err := row.Scan(
		&req.ID, &req.MenteeID, &req.MentorID, &helpType, &req.Context,
		pq.Array(&keyQuestions), &status, &req.CreatedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}

	req.HelpType = model.HelpType(helpType)
	req.KeyQuestions = keyQuestions
	req.Status = model.RequestStatus(status)
	if respondedAt.Valid {
		t := respondedAt.Time
		req.RespondedAt = &t
	}
	return req, nil
}

// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresRequestRepo) FindByID(ctx context.Context, id string) (*model.Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request by ID: %w", err)
	}
	return req, nil
}

// CreatePending は新規のpendingリクエストを作成する。
// idx_requests_pending_pair の一意制約違反はREQUEST_ALREADY_PENDINGエラーに変換する。
// サービス層のペアロックをすり抜けた並行作成もここで確実に1件に絞られる。
func (r *PostgresRequestRepo) CreatePending(ctx context.Context, request *model.Request) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests (id, mentee_id, mentor_id, help_type, context, key_questions, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)`,
		request.ID, request.MenteeID, request.MentorID, string(request.HelpType),
		request.Context, pq.Array(request.KeyQuestions), request.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewRequestAlreadyPendingError()
		}
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// ExistsPendingForPair は指定ペアにpendingリクエストが存在するかを返す。
func (r *PostgresRequestRepo) ExistsPendingForPair(ctx context.Context, menteeID, mentorID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM requests
		   WHERE mentee_id = $1 AND mentor_id = $2 AND status = 'pending'
		 )`,
		menteeID, mentorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return exists, nil
}

// MarkResponded はpendingリクエストを終端状態へ遷移させる。
// WHERE status='pending' により遷移は一度きりとなり、
// 2回目以降の呼び出しは更新行数0（false）になる。
func (r *PostgresRequestRepo) MarkResponded(ctx context.Context, requestID string, status model.RequestStatus, respondedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE requests SET status = $1, responded_at = $2
		 WHERE id = $3 AND status = 'pending'`,
		string(status), respondedAt, requestID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark request responded: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// ListBySubject は指定アカウントが関与する全リクエストを作成日時昇順で返す。
func (r *PostgresRequestRepo) ListBySubject(ctx context.Context, subjectID string) ([]*model.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE mentee_id = $1 OR mentor_id = $1
		 ORDER BY created_at ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by subject: %w", err)
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}

	return requests, nil
}

// compile-time interface check
var _ RequestRepository = (*PostgresRequestRepo)(nil)
