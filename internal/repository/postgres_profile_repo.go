package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/mentorlink/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pqUniqueViolation = "23505"

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}

// PostgresMentorProfileRepo はPostgreSQLを使用したメンタープロフィールリポジトリ。
type PostgresMentorProfileRepo struct {
	db *sql.DB
}

// NewPostgresMentorProfileRepo はPostgresMentorProfileRepoを生成する。
func NewPostgresMentorProfileRepo(db *sql.DB) *PostgresMentorProfileRepo {
	return &PostgresMentorProfileRepo{db: db}
}

// FindByAccountID は指定アカウントのメンタープロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresMentorProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.MentorProfile, error) {
	profile := &model.MentorProfile{}
	var helpTypes, interests []string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, industry, job_title, help_types_offered, interests,
		        picture_url, max_requests_per_week, active, created_at, updated_at
		 FROM mentor_profiles WHERE account_id = $1`,
		accountID,
	).Scan(
		&profile.ID, &profile.AccountID, &profile.Industry, &profile.JobTitle,
		pq.Array(&helpTypes), pq.Array(&interests),
		&profile.PictureURL, &profile.MaxRequestsPerWeek, &profile.Active,
		&profile.CreatedAt, &profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find mentor profile: %w", err)
	}

	profile.HelpTypesOffered = toHelpTypes(helpTypes)
	profile.Interests = interests
	return profile, nil
}

// Create はメンタープロフィールを作成する。
// account_idの一意制約違反はPROFILE_ALREADY_EXISTSエラーに変換する。
func (r *PostgresMentorProfileRepo) Create(ctx context.Context, profile *model.MentorProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mentor_profiles
		   (id, account_id, industry, job_title, help_types_offered, interests,
		    picture_url, max_requests_per_week, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		profile.ID, profile.AccountID, profile.Industry, profile.JobTitle,
		pq.Array(fromHelpTypes(profile.HelpTypesOffered)), pq.Array(profile.Interests),
		profile.PictureURL, profile.MaxRequestsPerWeek, profile.Active,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewProfileAlreadyExistsError(model.RoleMentor)
		}
		return fmt.Errorf("failed to insert mentor profile: %w", err)
	}
	return nil
}

// PostgresMenteeProfileRepo はPostgreSQLを使用したメンティープロフィールリポジトリ。
type PostgresMenteeProfileRepo struct {
	db *sql.DB
}

// NewPostgresMenteeProfileRepo はPostgresMenteeProfileRepoを生成する。
func NewPostgresMenteeProfileRepo(db *sql.DB) *PostgresMenteeProfileRepo {
	return &PostgresMenteeProfileRepo{db: db}
}

// FindByAccountID は指定アカウントのメンティープロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresMenteeProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.MenteeProfile, error) {
	profile := &model.MenteeProfile{}
	var helpNeeded, interests []string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, industry, goals, background, help_needed, interests,
		        picture_url, created_at, updated_at
		 FROM mentee_profiles WHERE account_id = $1`,
		accountID,
	).Scan(
		&profile.ID, &profile.AccountID, &profile.Industry, &profile.Goals, &profile.Background,
		pq.Array(&helpNeeded), pq.Array(&interests),
		&profile.PictureURL, &profile.CreatedAt, &profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find mentee profile: %w", err)
	}

	profile.HelpNeeded = toHelpTypes(helpNeeded)
	profile.Interests = interests
	return profile, nil
}

// Create はメンティープロフィールを作成する。
// account_idの一意制約違反はPROFILE_ALREADY_EXISTSエラーに変換する。
func (r *PostgresMenteeProfileRepo) Create(ctx context.Context, profile *model.MenteeProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mentee_profiles
		   (id, account_id, industry, goals, background, help_needed, interests,
		    picture_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		profile.ID, profile.AccountID, profile.Industry, profile.Goals, profile.Background,
		pq.Array(fromHelpTypes(profile.HelpNeeded)), pq.Array(profile.Interests),
		profile.PictureURL, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewProfileAlreadyExistsError(model.RoleMentee)
		}
		return fmt.Errorf("failed to insert mentee profile: %w", err)
	}
	return nil
}

// toHelpTypes はDBのtext[]をHelpTypeスライスに変換する。
func toHelpTypes(ss []string) []model.HelpType {
	hts := make([]model.HelpType, 0, len(ss))
	for _, s := range ss {
		hts = append(hts, model.HelpType(s))
	}
	return hts
}

// fromHelpTypes はHelpTypeスライスをDBのtext[]用に変換する。
func fromHelpTypes(hts []model.HelpType) []string {
	ss := make([]string, 0, len(hts))
	for _, ht := range hts {
		ss = append(ss, string(ht))
	}
	return ss
}

// compile-time interface checks
var (
	_ MentorProfileRepository = (*PostgresMentorProfileRepo)(nil)
	_ MenteeProfileRepository = (*PostgresMenteeProfileRepo)(nil)
)
