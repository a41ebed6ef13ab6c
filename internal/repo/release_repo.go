package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/deployer/internal/domain"
)

// ReleaseRepo — журнал release.
type ReleaseRepo struct {
	pool *pgxpool.Pool
}

// NewReleaseRepo создаёт новый ReleaseRepo.
func NewReleaseRepo(pool *pgxpool.Pool) *ReleaseRepo {
	return &ReleaseRepo{pool: pool}
}

// Create записывает новый release.
func (r *ReleaseRepo) Create(ctx context.Context, release *domain.Release) error {
	query := `
		INSERT INTO releases (id, environment, project, git_ref, ref, status, started_at, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		release.ID,
		release.Environment,
		release.Project,
		release.GitRef,
		nullString(release.Ref),
		release.Status,
		release.StartedAt,
		nullString(release.Error),
		release.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert release: %w", err)
	}
	return nil
}

// Finish записывает итоговый статус release.
// Повторное завершение возвращает ErrInvalidState.
func (r *ReleaseRepo) Finish(ctx context.Context, release *domain.Release) error {
	query := `
		UPDATE releases
		SET status = $2, finished_at = $3, error = $4
		WHERE id = $1 AND status NOT IN ('SUCCEEDED', 'FAILED')
	`
	result, err := r.pool.Exec(ctx, query,
		release.ID,
		release.Status,
		release.FinishedAt,
		nullString(release.Error),
	)
	if err != nil {
		return fmt.Errorf("finish release: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, release.ID); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// AddStep записывает результат шага на хосте.
func (r *ReleaseRepo) AddStep(ctx context.Context, releaseID uuid.UUID, step *domain.StepResult) error {
	commands := step.Commands
	if commands == nil {
		commands = []string{}
	}

	query := `
		INSERT INTO release_steps (release_id, step, host, commands, status, exit_status, output, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		releaseID,
		step.Step,
		step.Host,
		commands,
		step.Status,
		step.ExitStatus,
		nullString(step.Output),
		nullString(step.Error),
		step.StartedAt,
		step.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert release step: %w", err)
	}
	return nil
}

// GetByID возвращает release вместе с результатами шагов.
func (r *ReleaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Release, error) {
	query := `
		SELECT id, environment, project, git_ref, ref, status, started_at, finished_at, error, created_at
		FROM releases
		WHERE id = $1
	`
	release, err := scanRelease(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	steps, err := r.ListSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	release.Steps = steps

	return release, nil
}

// List возвращает последние release окружения.
// Пустое environment означает все окружения.
func (r *ReleaseRepo) List(ctx context.Context, filter ReleaseFilter) ([]domain.Release, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, environment, project, git_ref, ref, status, started_at, finished_at, error, created_at
		FROM releases
		WHERE ($1::text IS NULL OR environment = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, nullString(filter.Environment), limit)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	defer rows.Close()

	var releases []domain.Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, *release)
	}
	return releases, rows.Err()
}

// ListSteps возвращает результаты шагов release в порядке записи.
func (r *ReleaseRepo) ListSteps(ctx context.Context, releaseID uuid.UUID) ([]domain.StepResult, error) {
	query := `
		SELECT step, host, commands, status, exit_status, output, error, started_at, finished_at
		FROM release_steps
		WHERE release_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list release steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepResult
	for rows.Next() {
		var s domain.StepResult
		var output, stepError *string

		if err := rows.Scan(
			&s.Step,
			&s.Host,
			&s.Commands,
			&s.Status,
			&s.ExitStatus,
			&output,
			&stepError,
			&s.StartedAt,
			&s.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan release step: %w", err)
		}

		s.Output = derefString(output)
		s.Error = derefString(stepError)
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// --- Helpers ---

// ReleaseFilter — параметры фильтрации release.
type ReleaseFilter struct {
	Environment string
	Limit       int
}

// scanRelease сканирует одну строку в Release.
// pgx.Rows тоже реализует pgx.Row.
func scanRelease(row pgx.Row) (*domain.Release, error) {
	var release domain.Release
	var ref, releaseError *string

	err := row.Scan(
		&release.ID,
		&release.Environment,
		&release.Project,
		&release.GitRef,
		&ref,
		&release.Status,
		&release.StartedAt,
		&release.FinishedAt,
		&releaseError,
		&release.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan release: %w", err)
	}

	release.Ref = derefString(ref)
	release.Error = derefString(releaseError)

	return &release, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString возвращает "" для NULL.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
