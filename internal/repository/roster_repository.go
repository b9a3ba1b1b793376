package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/database"
)

const traineeColumns = `id, user_id, admission_number, full_name, qualification_id, trade_id, level, intake_label`

// RosterRepository persists gradebook enrollments and reads the trainee and
// qualification lookups they are matched against.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListEnrolled returns the roster of a gradebook ordered by trainee name.
func (r *RosterRepository) ListEnrolled(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error) {
	const query = `SELECT gt.trainee_id, t.admission_number, t.full_name, t.user_id, gt.enrolled_at
	FROM gradebook_trainees gt
	JOIN trainees t ON t.id = gt.trainee_id
	WHERE gt.gradebook_id = $1
	ORDER BY t.full_name, t.admission_number, gt.trainee_id`
	trainees := make([]models.EnrolledTrainee, 0)
	if err := r.db.SelectContext(ctx, &trainees, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return trainees, nil
}

// Count returns the number of trainees enrolled in a gradebook.
func (r *RosterRepository) Count(ctx context.Context, gradebookID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gradebook_trainees WHERE gradebook_id = $1`, gradebookID); err != nil {
		return 0, fmt.Errorf("count roster: %w", err)
	}
	return total, nil
}

// IsEnrolled reports whether the trainee is on the gradebook roster.
func (r *RosterRepository) IsEnrolled(ctx context.Context, gradebookID, traineeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM gradebook_trainees WHERE gradebook_id = $1 AND trainee_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, gradebookID, traineeID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// FindTrainee fetches a trainee by identifier.
func (r *RosterRepository) FindTrainee(ctx context.Context, id string) (*models.Trainee, error) {
	query := `SELECT ` + traineeColumns + ` FROM trainees WHERE id = $1`
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, query, id); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindTraineeByUserID fetches the trainee linked to a login account.
func (r *RosterRepository) FindTraineeByUserID(ctx context.Context, userID string) (*models.Trainee, error) {
	query := `SELECT ` + traineeColumns + ` FROM trainees WHERE user_id = $1`
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, query, userID); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindQualification fetches a qualification by identifier.
func (r *RosterRepository) FindQualification(ctx context.Context, id string) (*models.Qualification, error) {
	const query = `SELECT id, name, trade_id, has_levels FROM qualifications WHERE id = $1`
	var qualification models.Qualification
	if err := r.db.GetContext(ctx, &qualification, query, id); err != nil {
		return nil, err
	}
	return &qualification, nil
}

// FindMatching returns trainees registered on the qualification, or on its trade,
// restricted to a level when one is given.
func (r *RosterRepository) FindMatching(ctx context.Context, match models.TraineeMatch) ([]models.Trainee, error) {
	args := []interface{}{match.QualificationID}
	condition := "qualification_id = $1"
	if match.TradeID != nil && *match.TradeID != "" {
		args = append(args, *match.TradeID)
		condition = fmt.Sprintf("(qualification_id = $1 OR trade_id = $%d)", len(args))
	}
	if match.Level != nil && *match.Level != "" {
		args = append(args, *match.Level)
		condition += fmt.Sprintf(" AND level = $%d", len(args))
	}
	query := `SELECT ` + traineeColumns + ` FROM trainees WHERE ` + condition + ` ORDER BY full_name, id`
	trainees := make([]models.Trainee, 0)
	if err := r.db.SelectContext(ctx, &trainees, query, args...); err != nil {
		return nil, fmt.Errorf("find matching trainees: %w", err)
	}
	return trainees, nil
}

// EnrollIfEmpty enrolls the trainees in one transaction, but only while the
// roster is still empty. The gradebook row is locked for the duration so
// concurrent reconciliations serialise. It returns the number of new rows.
func (r *RosterRepository) EnrollIfEmpty(ctx context.Context, gradebookID string, traineeIDs []string) (int, error) {
	if len(traineeIDs) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin roster tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM gradebooks WHERE id = $1 FOR UPDATE`, gradebookID); err != nil {
		return 0, err
	}
	var existing int
	if err = tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM gradebook_trainees WHERE gradebook_id = $1`, gradebookID); err != nil {
		return 0, fmt.Errorf("recount roster: %w", err)
	}
	if existing > 0 {
		tx.Rollback() //nolint:errcheck
		return 0, nil
	}

	var inserted int
	inserted, err = insertEnrollments(ctx, tx, gradebookID, traineeIDs)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit roster tx: %w", err)
	}
	return inserted, nil
}

// Enroll adds trainees to the roster, ignoring those already enrolled. Unknown
// trainees fail the whole batch with ErrReferenceNotFound.
func (r *RosterRepository) Enroll(ctx context.Context, gradebookID string, traineeIDs []string) (int, error) {
	if len(traineeIDs) == 0 {
		return 0, nil
	}
	var inserted int
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		inserted, err = insertEnrollments(ctx, tx, gradebookID, traineeIDs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertEnrollments(ctx context.Context, tx *sqlx.Tx, gradebookID string, traineeIDs []string) (int, error) {
	now := time.Now().UTC()
	values := make([]string, 0, len(traineeIDs))
	args := make([]interface{}, 0, len(traineeIDs)+2)
	args = append(args, gradebookID, now)
	for _, id := range traineeIDs {
		args = append(args, id)
		values = append(values, fmt.Sprintf("($1, $%d, $2)", len(args)))
	}
	query := `INSERT INTO gradebook_trainees (gradebook_id, trainee_id, enrolled_at) VALUES ` +
		strings.Join(values, ", ") +
		` ON CONFLICT (gradebook_id, trainee_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert enrollments: %w", classifyPgError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}
