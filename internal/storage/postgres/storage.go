package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
)

const uniqueViolation = "23505"

// pgxPool is the subset of pgxpool.Pool the storage uses; narrowed to an
// interface so tests can substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type programRepository struct {
	storage *Storage
}

type applicationRepository struct {
	storage *Storage
}

type paymentRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Programs() repository.ProgramRepository {
	return &programRepository{storage: s}
}

func (s *Storage) Applications() repository.ApplicationRepository {
	return &applicationRepository{storage: s}
}

func (s *Storage) Payments() repository.PaymentRepository {
	return &paymentRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS programs (
            id BIGSERIAL PRIMARY KEY,
            owner_id BIGINT NOT NULL REFERENCES users(id),
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            total_slots INT NOT NULL,
            available_slots INT NOT NULL,
            fee_amount BIGINT NOT NULL DEFAULT 0,
            currency TEXT NOT NULL DEFAULT 'GHS',
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT programs_slots_range CHECK (available_slots >= 0 AND available_slots <= total_slots)
        )`,
		`CREATE SEQUENCE IF NOT EXISTS application_number_seq`,
		`CREATE TABLE IF NOT EXISTS applications (
            id BIGSERIAL PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            student_id BIGINT NOT NULL REFERENCES users(id),
            program_id BIGINT NOT NULL REFERENCES programs(id),
            status TEXT NOT NULL,
            motivation TEXT,
            portfolio_url TEXT,
            review_notes TEXT,
            reviewer_id BIGINT REFERENCES users(id),
            submitted_at TIMESTAMPTZ,
            reviewed_at TIMESTAMPTZ,
            interview_at TIMESTAMPTZ,
            decided_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_live
            ON applications(student_id, program_id) WHERE status <> 'CANCELLED'`,
		`CREATE TABLE IF NOT EXISTS payments (
            id BIGSERIAL PRIMARY KEY,
            student_id BIGINT NOT NULL REFERENCES users(id),
            application_id BIGINT NOT NULL REFERENCES applications(id),
            amount BIGINT NOT NULL,
            currency TEXT NOT NULL,
            reference TEXT UNIQUE NOT NULL,
            provider_reference TEXT UNIQUE,
            status TEXT NOT NULL,
            channel TEXT,
            paid_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_applications_student ON applications(student_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_program ON applications(program_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_student ON payments(student_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_application ON payments(application_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, email, passwordHash string, role model.Role) (*model.User, error) {
	const query = `INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email, passwordHash, role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Email = email
	u.PasswordHash = passwordHash
	u.Role = role
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, email, password_hash, role, created_at FROM users WHERE email=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, email, password_hash, role, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- ProgramRepository implementation ---

const programColumns = `id, owner_id, title, description, total_slots, available_slots, fee_amount, currency, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(rs rowScanner) (*model.Program, error) {
	var p model.Program
	err := rs.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.TotalSlots, &p.AvailableSlots,
		&p.FeeAmount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepository) Create(ctx context.Context, program *model.Program) (*model.Program, error) {
	const query = `INSERT INTO programs (owner_id, title, description, total_slots, available_slots, fee_amount, currency, status)
                   VALUES ($1, $2, $3, $4, $4, $5, $6, $7)
                   RETURNING id, created_at, updated_at`
	p := *program
	p.AvailableSlots = p.TotalSlots
	err := r.storage.pool.QueryRow(ctx, query,
		p.OwnerID, p.Title, p.Description, p.TotalSlots, p.FeeAmount, p.Currency, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepository) GetByID(ctx context.Context, id int64) (*model.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id=$1`
	p, err := scanProgram(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *programRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE owner_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *programRepository) UpdateStatus(ctx context.Context, programID int64, from, to model.ProgramStatus) (bool, error) {
	const query = `UPDATE programs SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	tag, err := r.storage.pool.Exec(ctx, query, to, programID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReserveSlot is the single atomic availability check + decrement: two
// concurrent applicants observing one free slot cannot both succeed.
func (r *programRepository) ReserveSlot(ctx context.Context, programID int64) (bool, error) {
	const query = `UPDATE programs SET available_slots = available_slots - 1, updated_at=NOW()
                   WHERE id=$1 AND available_slots > 0 AND status=$2`
	tag, err := r.storage.pool.Exec(ctx, query, programID, model.ProgramStatusOpen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *programRepository) ReleaseSlot(ctx context.Context, programID int64) (bool, error) {
	const query = `UPDATE programs SET available_slots = available_slots + 1, updated_at=NOW()
                   WHERE id=$1 AND available_slots < total_slots`
	tag, err := r.storage.pool.Exec(ctx, query, programID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// --- ApplicationRepository implementation ---

const applicationColumns = `id, number, student_id, program_id, status, motivation, portfolio_url,
    review_notes, reviewer_id, submitted_at, reviewed_at, interview_at, decided_at, created_at, updated_at`

func scanApplication(rs rowScanner) (*model.Application, error) {
	var a model.Application
	err := rs.Scan(&a.ID, &a.Number, &a.StudentID, &a.ProgramID, &a.Status, &a.Motivation, &a.PortfolioURL,
		&a.ReviewNotes, &a.ReviewerID, &a.SubmittedAt, &a.ReviewedAt, &a.InterviewAt, &a.DecidedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	const query = `INSERT INTO applications (number, student_id, program_id, status, motivation, portfolio_url)
                   VALUES ('WS-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('application_number_seq')::text, 6, '0'), $1, $2, $3, $4, $5)
                   RETURNING id, number, created_at, updated_at`
	a := *app
	err := r.storage.pool.QueryRow(ctx, query,
		a.StudentID, a.ProgramID, a.Status, a.Motivation, a.PortfolioURL).
		Scan(&a.ID, &a.Number, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domainErrors.ErrDuplicateApplication
		}
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id=$1`
	a, err := scanApplication(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *applicationRepository) GetLiveByStudentAndProgram(ctx context.Context, studentID, programID int64) (*model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
              WHERE student_id=$1 AND program_id=$2 AND status <> $3`
	a, err := scanApplication(r.storage.pool.QueryRow(ctx, query, studentID, programID, model.ApplicationStatusCancelled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *applicationRepository) ListByStudent(ctx context.Context, studentID int64) ([]model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *applicationRepository) ListByProgram(ctx context.Context, programID int64) ([]model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE program_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, programID)
}

func (r *applicationRepository) list(ctx context.Context, query string, arg any) ([]model.Application, error) {
	rows, err := r.storage.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *applicationRepository) UpdateDraft(ctx context.Context, id int64, patch model.DraftPatch) (bool, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	idx := 1
	if patch.Motivation.Set {
		sets = append(sets, fmt.Sprintf("motivation=$%d", idx))
		args = append(args, patch.Motivation.Ptr())
		idx++
	}
	if patch.PortfolioURL.Set {
		sets = append(sets, fmt.Sprintf("portfolio_url=$%d", idx))
		args = append(args, patch.PortfolioURL.Ptr())
		idx++
	}
	if len(sets) == 0 {
		return false, nil
	}
	sets = append(sets, "updated_at=NOW()")

	query := fmt.Sprintf(`UPDATE applications SET %s WHERE id=$%d AND status=$%d`,
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, id, model.ApplicationStatusDraft)

	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Transition applies "update where id and status=expected" so concurrent
// attempts on the same application race safely; the caller inspects the
// applied flag. Each target status stamps its own timestamp set.
func (r *applicationRepository) Transition(ctx context.Context, id int64, from, to model.ApplicationStatus, stamp *model.ReviewStamp) (bool, error) {
	var (
		query string
		args  []any
	)

	switch to {
	case model.ApplicationStatusSubmitted:
		query = `UPDATE applications SET status=$1, submitted_at=NOW(), updated_at=NOW() WHERE id=$2 AND status=$3`
		args = []any{to, id, from}
	case model.ApplicationStatusCancelled:
		query = `UPDATE applications SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
		args = []any{to, id, from}
	case model.ApplicationStatusUnderReview:
		if stamp == nil {
			return false, fmt.Errorf("transition to %s: review stamp required", to)
		}
		query = `UPDATE applications SET status=$1, reviewed_at=NOW(), reviewer_id=$2, review_notes=NULLIF($3, ''), updated_at=NOW()
                 WHERE id=$4 AND status=$5`
		args = []any{to, stamp.ReviewerID, stamp.Notes, id, from}
	case model.ApplicationStatusShortlisted:
		if stamp == nil {
			return false, fmt.Errorf("transition to %s: review stamp required", to)
		}
		query = `UPDATE applications SET status=$1, reviewer_id=$2, review_notes=NULLIF($3, ''), updated_at=NOW()
                 WHERE id=$4 AND status=$5`
		args = []any{to, stamp.ReviewerID, stamp.Notes, id, from}
	case model.ApplicationStatusInterviewScheduled:
		if stamp == nil {
			return false, fmt.Errorf("transition to %s: review stamp required", to)
		}
		query = `UPDATE applications SET status=$1, interview_at=$2, reviewer_id=$3, review_notes=NULLIF($4, ''), updated_at=NOW()
                 WHERE id=$5 AND status=$6`
		args = []any{to, stamp.InterviewAt, stamp.ReviewerID, stamp.Notes, id, from}
	case model.ApplicationStatusAccepted, model.ApplicationStatusRejected:
		if stamp == nil {
			return false, fmt.Errorf("transition to %s: review stamp required", to)
		}
		query = `UPDATE applications SET status=$1, decided_at=NOW(), reviewer_id=$2, review_notes=NULLIF($3, ''), updated_at=NOW()
                 WHERE id=$4 AND status=$5`
		args = []any{to, stamp.ReviewerID, stamp.Notes, id, from}
	case model.ApplicationStatusEnrolled:
		if stamp == nil {
			return false, fmt.Errorf("transition to %s: review stamp required", to)
		}
		query = `UPDATE applications SET status=$1, reviewer_id=$2, updated_at=NOW() WHERE id=$3 AND status=$4`
		args = []any{to, stamp.ReviewerID, id, from}
	default:
		return false, fmt.Errorf("transition to %s not supported", to)
	}

	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *applicationRepository) SelectStaleDrafts(ctx context.Context, cutoff time.Time, limit int) ([]model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
              WHERE status=$1 AND updated_at < $2 ORDER BY updated_at LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, model.ApplicationStatusDraft, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- PaymentRepository implementation ---

const paymentColumns = `id, student_id, application_id, amount, currency, reference, provider_reference,
    status, channel, paid_at, created_at, updated_at`

func scanPayment(rs rowScanner) (*model.Payment, error) {
	var p model.Payment
	err := rs.Scan(&p.ID, &p.StudentID, &p.ApplicationID, &p.Amount, &p.Currency, &p.Reference,
		&p.ProviderReference, &p.Status, &p.Channel, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	const query = `INSERT INTO payments (student_id, application_id, amount, currency, reference, status)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING id, created_at, updated_at`
	p := *payment
	err := r.storage.pool.QueryRow(ctx, query,
		p.StudentID, p.ApplicationID, p.Amount, p.Currency, p.Reference, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) SetProviderReference(ctx context.Context, id int64, providerRef string) error {
	const query = `UPDATE payments SET provider_reference=$1, updated_at=NOW()
                   WHERE id=$2 AND provider_reference IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, providerRef, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domainErrors.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrConflict
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM payments WHERE id=$1 AND status=$2`
	_, err := r.storage.pool.Exec(ctx, query, id, model.PaymentStatusPending)
	return err
}

func (r *paymentRepository) GetByProviderReference(ctx context.Context, providerRef string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_reference=$1`
	p, err := scanPayment(r.storage.pool.QueryRow(ctx, query, providerRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) GetCompletedByApplication(ctx context.Context, applicationID int64) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE application_id=$1 AND status=$2 LIMIT 1`
	p, err := scanPayment(r.storage.pool.QueryRow(ctx, query, applicationID, model.PaymentStatusCompleted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) ListByStudent(ctx context.Context, studentID int64) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE student_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkTerminal only ever applies the PENDING→terminal edge, which makes both
// delivery channels and any webhook redelivery idempotent: the first terminal
// report wins, later conflicting reports affect zero rows.
func (r *paymentRepository) MarkTerminal(ctx context.Context, providerRef string, to model.PaymentStatus, channel string) (bool, error) {
	var query string
	switch to {
	case model.PaymentStatusCompleted:
		query = `UPDATE payments SET status=$1, channel=NULLIF($2, ''), paid_at=NOW(), updated_at=NOW()
                 WHERE provider_reference=$3 AND status=$4`
	case model.PaymentStatusFailed:
		query = `UPDATE payments SET status=$1, channel=NULLIF($2, ''), updated_at=NOW()
                 WHERE provider_reference=$3 AND status=$4`
	default:
		return false, fmt.Errorf("mark terminal: %s is not a terminal status", to)
	}

	tag, err := r.storage.pool.Exec(ctx, query, to, channel, providerRef, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepository) SelectPendingForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error) {
	selectQuery := `SELECT ` + paymentColumns + ` FROM payments
                    WHERE status=$1 AND provider_reference IS NOT NULL AND updated_at < $2
                    ORDER BY updated_at
                    LIMIT $3
                    FOR UPDATE SKIP LOCKED`

	var payments []model.Payment
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, model.PaymentStatusPending, cutoff, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPayment(rows)
			if err != nil {
				return err
			}
			payments = append(payments, *p)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		// Bump updated_at as the claim so other instances skip these rows
		// until the next grace period.
		for i := range payments {
			if _, err := tx.Exec(ctx, `UPDATE payments SET updated_at=NOW() WHERE id=$1`, payments[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM payments
                   WHERE status=$1 AND provider_reference IS NULL AND created_at < $2`
	tag, err := r.storage.pool.Exec(ctx, query, model.PaymentStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
