package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/hitoshi/mentorlink/internal/model"
)

// PostgresCandidateRepo はPostgreSQLを使用した候補メンターの読み取り専用リポジトリ。
// フィルタ条件が可変のためsquirrelでクエリを組み立てる。
type PostgresCandidateRepo struct {
	db *sql.DB
}

// NewPostgresCandidateRepo はPostgresCandidateRepoを生成する。
func NewPostgresCandidateRepo(db *sql.DB) *PostgresCandidateRepo {
	return &PostgresCandidateRepo{db: db}
}

// ListPage は条件に合致する候補メンターを作成日時昇順で1ページ分返す。
// 以下を常に除外する:
//   - 閲覧者本人
//   - 非アクティブなメンター
//   - 閲覧者とのpending/acceptedリクエストが既に存在するメンター
func (r *PostgresCandidateRepo) ListPage(ctx context.Context, q CandidateQuery) ([]model.Candidate, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	builder := psql.
		Select(
			"mp.account_id", "a.display_name", "mp.industry", "mp.job_title",
			"mp.help_types_offered", "mp.interests", "mp.picture_url", "mp.created_at",
		).
		From("mentor_profiles mp").
		Join("accounts a ON a.id = mp.account_id").
		Where(sq.Eq{"mp.active": true}).
		Where(sq.NotEq{"mp.account_id": q.SubjectID}).
		Where(`NOT EXISTS (
			SELECT 1 FROM requests r
			WHERE r.mentee_id = ? AND r.mentor_id = mp.account_id
			  AND r.status IN ('pending', 'accepted')
		)`, q.SubjectID).
		OrderBy("mp.created_at ASC", "mp.account_id ASC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset))

	if q.Industry != "" {
		builder = builder.Where("lower(mp.industry) = lower(?)", q.Industry)
	}
	if q.HelpType != "" {
		builder = builder.Where("? = ANY(mp.help_types_offered)", string(q.HelpType))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build candidate query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var helpTypes, interests []string
		if err := rows.Scan(
			&c.AccountID, &c.DisplayName, &c.Industry, &c.JobTitle,
			pq.Array(&helpTypes), pq.Array(&interests), &c.PictureURL, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.HelpTypesOffered = toHelpTypes(helpTypes)
		c.Interests = interests
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	return candidates, nil
}

// compile-time interface check
var _ CandidateRepository = (*PostgresCandidateRepo)(nil)
