package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/role"
)

type (
	roleRow struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
		UserCount   int    `db:"user_count"`
	}

	permissionRow struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
	}
)

type roleRepository struct {
	db *sqlx.DB
}

var _ role.Repository = (*roleRepository)(nil) // interface compliance check

func NewRoleRepository(db *sqlx.DB) *roleRepository {
	return &roleRepository{db: db}
}

func (repo *roleRepository) QueryRoles(ctx context.Context) ([]role.Role, error) {
	var rows []roleRow
	err := repo.db.SelectContext(ctx, &rows, `
SELECT r.id, r.name, r.description, COUNT(u.id) AS user_count
FROM roles r
LEFT JOIN users u ON u.role_id = r.id
GROUP BY r.id
ORDER BY r.name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}

	roles := make([]role.Role, len(rows))
	for i, row := range rows {
		roles[i] = role.Role(row)
	}
	return roles, nil
}

func (repo *roleRepository) GetRoleByID(ctx context.Context, id string) (role.Role, error) {
	var row roleRow
	err := repo.db.GetContext(ctx, &row, `
SELECT r.id, r.name, r.description, COUNT(u.id) AS user_count
FROM roles r
LEFT JOIN users u ON u.role_id = r.id
WHERE r.id = $1
GROUP BY r.id`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return role.Role{}, role.ErrNotFound
		}
		return role.Role{}, errors.Wrap(err, "getting role")
	}
	return role.Role(row), nil
}

func (repo *roleRepository) CreateRole(ctx context.Context, r role.Role) (role.Role, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, description) VALUES ($1, $2, $3)`, r.ID, r.Name, r.Description)
	if err != nil {
		return role.Role{}, errors.Wrap(err, "inserting role")
	}
	return r, nil
}

func (repo *roleRepository) QueryPermissions(ctx context.Context) ([]role.Permission, error) {
	var rows []permissionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying permissions")
	}

	perms := make([]role.Permission, len(rows))
	for i, row := range rows {
		perms[i] = role.Permission(row)
	}
	return perms, nil
}

func (repo *roleRepository) GetPermissionByID(ctx context.Context, id string) (role.Permission, error) {
	var row permissionRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, description FROM permissions WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return role.Permission{}, role.ErrNotFound
		}
		return role.Permission{}, errors.Wrap(err, "getting permission")
	}
	return role.Permission(row), nil
}

func (repo *roleRepository) PermissionIDsForRole(ctx context.Context, roleID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT permission_id FROM role_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, errors.Wrap(err, "querying role permission IDs")
	}
	return ids, nil
}

// ReplaceRolePermissions swaps the role's whole mapping in one
// transaction so a failed insert leaves the previous set intact.
func (repo *roleRepository) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return core.Atomic(ctx, repo.db, func(tx core.DBTransactor) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return errors.Wrap(err, "clearing role permissions")
		}
		for _, permID := range permissionIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permID)
			if err != nil {
				return errors.Wrapf(err, "mapping permission %s", permID)
			}
		}
		return nil
	})
}
