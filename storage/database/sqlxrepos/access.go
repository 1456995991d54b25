package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/daftari/core/access"
)

// accessRepository answers the session and scoping queries, reusing the
// account repository for the identity half.
type accessRepository struct {
	db *sqlx.DB
	*accountRepository
}

var _ access.Repository = (*accessRepository)(nil) // interface compliance check

func NewAccessRepository(db *sqlx.DB) *accessRepository {
	return &accessRepository{db: db, accountRepository: NewAccountRepository(db)}
}

func (repo *accessRepository) PermissionsForRole(ctx context.Context, roleID string) ([]string, error) {
	var names []string
	err := repo.db.SelectContext(ctx, &names, `
SELECT p.name
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1`, roleID)
	if err != nil {
		return nil, errors.Wrap(err, "querying role permissions")
	}
	return names, nil
}

func (repo *accessRepository) linkedID(ctx context.Context, table, userID string) (string, error) {
	var id string
	err := repo.db.GetContext(ctx, &id, `SELECT id FROM `+table+` WHERE user_id = $1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", errors.Wrapf(err, "resolving %s record", table)
	}
	return id, nil
}

func (repo *accessRepository) ProfessorIDForUser(ctx context.Context, userID string) (string, error) {
	return repo.linkedID(ctx, "professors", userID)
}

func (repo *accessRepository) StudentIDForUser(ctx context.Context, userID string) (string, error) {
	return repo.linkedID(ctx, "students", userID)
}

func (repo *accessRepository) IsProfessorAssigned(ctx context.Context, professorID, courseID, semesterID string) (bool, error) {
	var assigned bool
	err := repo.db.GetContext(ctx, &assigned, `
SELECT EXISTS (
    SELECT 1 FROM course_assignments
    WHERE professor_id = $1 AND course_id = $2 AND semester_id = $3
)`, professorID, courseID, semesterID)
	if err != nil {
		return false, errors.Wrap(err, "checking course assignment")
	}
	return assigned, nil
}

func (repo *accessRepository) AssignedCourseIDs(ctx context.Context, professorID, semesterID string) ([]string, error) {
	query := `SELECT DISTINCT course_id FROM course_assignments WHERE professor_id = $1`
	args := []interface{}{professorID}
	if semesterID != "" {
		query += ` AND semester_id = $2`
		args = append(args, semesterID)
	}

	var ids []string
	if err := repo.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assigned courses")
	}
	return ids, nil
}

func (repo *accessRepository) AppendAuditEntry(ctx context.Context, entry access.AuditEntry) error {
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO audit_log (user_id, action, table_name, record_id, details, at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		null.NewString(entry.UserID, entry.UserID != ""),
		entry.Action, entry.Table, entry.RecordID, entry.Details, entry.At,
	)
	return errors.Wrap(err, "appending audit entry")
}
