package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
)

var ErrJobNotFound = errors.New("batch job not found")

// JobOutcome is what a completed batch records.
type JobOutcome struct {
	ArchivePath string
	Documents   int
	Individuals int
	Companies   int
}

type BatchJobRepository interface {
	Create(ctx context.Context, id uuid.UUID, workDir string, rename bool) (*entity.BatchJob, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error)
	List(ctx context.Context, limit int) ([]*entity.BatchJob, error)
	SetProgress(ctx context.Context, id uuid.UUID, status constants.JobStatus, progress int) error
	Complete(ctx context.Context, id uuid.UUID, out JobOutcome) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewBatchJobRepository returns the SQL-backed repository, or the in-memory one when db is nil.
func NewBatchJobRepository(db *DB, log *slog.Logger) BatchJobRepository {
	if log == nil {
		log = slog.Default()
	}
	if db == nil {
		return &memoryJobRepo{jobs: map[uuid.UUID]*entity.BatchJob{}, log: log}
	}
	return &sqlJobRepo{db: db, log: log}
}

type memoryJobRepo struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*entity.BatchJob
	log  *slog.Logger
}

func (r *memoryJobRepo) Create(_ context.Context, id uuid.UUID, workDir string, rename bool) (*entity.BatchJob, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	job := &entity.BatchJob{
		ID:        id,
		Status:    constants.JobStatusQueued,
		Progress:  constants.ProgressQueued,
		WorkDir:   workDir,
		Rename:    rename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	if _, dup := r.jobs[id]; dup {
		r.mu.Unlock()
		return nil, fmt.Errorf("batch job %s already exists", id)
	}
	r.jobs[job.ID] = job
	r.mu.Unlock()
	r.log.Info("batch_job created", "job_id", job.ID, "work_dir", workDir)
	cp := *job
	return &cp, nil
}

func (r *memoryJobRepo) Get(_ context.Context, id uuid.UUID) (*entity.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *memoryJobRepo) List(_ context.Context, limit int) ([]*entity.BatchJob, error) {
	r.mu.RLock()
	out := make([]*entity.BatchJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		cp := *j
		out = append(out, &cp)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryJobRepo) update(id uuid.UUID, fn func(*entity.BatchJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryJobRepo) SetProgress(_ context.Context, id uuid.UUID, status constants.JobStatus, progress int) error {
	return r.update(id, func(j *entity.BatchJob) {
		j.Status = status
		j.Progress = progress
	})
}

func (r *memoryJobRepo) Complete(_ context.Context, id uuid.UUID, out JobOutcome) error {
	err := r.update(id, func(j *entity.BatchJob) {
		now := time.Now().UTC()
		archive := out.ArchivePath
		j.Status = constants.JobStatusCompleted
		j.Progress = constants.ProgressDone
		j.ArchivePath = &archive
		j.Documents = out.Documents
		j.Individuals = out.Individuals
		j.Companies = out.Companies
		j.FinishedAt = &now
	})
	if err == nil {
		r.log.Info("batch_job finished (COMPLETED)", "job_id", id, "documents", out.Documents)
	}
	return err
}

func (r *memoryJobRepo) Fail(_ context.Context, id uuid.UUID, message string) error {
	err := r.update(id, func(j *entity.BatchJob) {
		now := time.Now().UTC()
		j.Status = constants.JobStatusFailed
		j.ErrorMessage = &message
		j.FinishedAt = &now
	})
	if err == nil {
		r.log.Warn("batch_job finished (FAILED)", "job_id", id, "error", message)
	}
	return err
}

func (r *memoryJobRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(r.jobs, id)
	return nil
}

type sqlJobRepo struct {
	db  *DB
	log *slog.Logger
}

const jobColumns = `id, status, progress, work_dir, rename_files, archive_path, error_message,
	documents, individuals, companies, created_at, updated_at, finished_at`

func (r *sqlJobRepo) Create(ctx context.Context, id uuid.UUID, workDir string, rename bool) (*entity.BatchJob, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	job := &entity.BatchJob{
		ID:        id,
		Status:    constants.JobStatusQueued,
		Progress:  constants.ProgressQueued,
		WorkDir:   workDir,
		Rename:    rename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(`INSERT INTO batch_job
		(id, status, progress, work_dir, rename_files, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		job.ID.String(), string(job.Status), job.Progress, workDir, rename, now.UnixNano(), now.UnixNano())
	if err != nil {
		r.log.Error("batch_job create failed", "work_dir", workDir, "err", err)
		return nil, err
	}
	r.log.Info("batch_job created", "job_id", job.ID, "work_dir", workDir)
	return job, nil
}

func (r *sqlJobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT `+jobColumns+` FROM batch_job WHERE id = ?`), id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (r *sqlJobRepo) List(ctx context.Context, limit int) ([]*entity.BatchJob, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT `+jobColumns+` FROM batch_job ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*entity.BatchJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *sqlJobRepo) exec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

func (r *sqlJobRepo) SetProgress(ctx context.Context, id uuid.UUID, status constants.JobStatus, progress int) error {
	return r.exec(ctx, id, `UPDATE batch_job SET status = ?, progress = ?, updated_at = ? WHERE id = ?`,
		string(status), progress, time.Now().UTC().UnixNano(), id.String())
}

func (r *sqlJobRepo) Complete(ctx context.Context, id uuid.UUID, out JobOutcome) error {
	now := time.Now().UTC().UnixNano()
	err := r.exec(ctx, id, `UPDATE batch_job SET status = ?, progress = ?, archive_path = ?,
		documents = ?, individuals = ?, companies = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusCompleted), constants.ProgressDone, out.ArchivePath,
		out.Documents, out.Individuals, out.Companies, now, now, id.String())
	if err != nil {
		r.log.Error("batch_job finish(COMPLETED) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Info("batch_job finished (COMPLETED)", "job_id", id, "documents", out.Documents)
	return nil
}

func (r *sqlJobRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	now := time.Now().UTC().UnixNano()
	err := r.exec(ctx, id, `UPDATE batch_job SET status = ?, error_message = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusFailed), message, now, now, id.String())
	if err != nil {
		r.log.Error("batch_job finish(FAILED) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Warn("batch_job finished (FAILED)", "job_id", id, "error", message)
	return nil
}

func (r *sqlJobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, id, `DELETE FROM batch_job WHERE id = ?`, id.String())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*entity.BatchJob, error) {
	var (
		job              entity.BatchJob
		id, status       string
		archive, errMsg  sql.NullString
		created, updated int64
		finished         sql.NullInt64
	)
	if err := s.Scan(&id, &status, &job.Progress, &job.WorkDir, &job.Rename, &archive, &errMsg,
		&job.Documents, &job.Individuals, &job.Companies, &created, &updated, &finished); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("batch_job id %q: %w", id, err)
	}
	job.ID = parsed
	job.Status = constants.JobStatus(status)
	if archive.Valid {
		job.ArchivePath = &archive.String
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	job.CreatedAt = time.Unix(0, created).UTC()
	job.UpdatedAt = time.Unix(0, updated).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		job.FinishedAt = &t
	}
	return &job, nil
}
