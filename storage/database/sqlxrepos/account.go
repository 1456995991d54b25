// Package sqlxrepos implements every core repository on PostgreSQL via
// sqlx. Multi-table writes go through core.Atomic so the pairing
// invariants hold under failure.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
)

type accountRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	FullName     string    `db:"full_name"`
	RoleID       string    `db:"role_id"`
	RoleName     string    `db:"role_name"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (row accountRow) toAccount() account.Account {
	return account.Account{
		ID:           row.ID,
		Username:     row.Username,
		FullName:     row.FullName,
		RoleID:       row.RoleID,
		RoleName:     row.RoleName,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

const selectAccount = `
SELECT u.id, u.username, u.full_name, u.role_id, r.name AS role_name,
       u.is_active, u.password_hash, u.created_at, u.updated_at, u.last_login
FROM users u
JOIN roles r ON r.id = u.role_id`

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CheckUsernameUniqueness(ctx context.Context, username string, excluded ...account.Account) error {
	query := `SELECT COUNT(*) FROM users WHERE username = $1`
	args := []interface{}{username}
	if len(excluded) > 0 {
		ids := make([]string, len(excluded))
		for i, acct := range excluded {
			ids[i] = acct.ID
		}
		var err error
		query, args, err = sqlx.In(`SELECT COUNT(*) FROM users WHERE username = ? AND id NOT IN (?)`, username, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(query)
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if count > 0 {
		return account.ErrUsernameExists
	}
	return nil
}

// CreateAccount inserts the user row and, when linkedEntityID is given,
// binds the professor or student record to it in the same transaction.
func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account, linkedEntityID string) (account.Account, error) {
	acct.ID = uuid.New().String()
	now := time.Now().UTC()
	acct.CreatedAt, acct.UpdatedAt = now, now

	err := core.Atomic(ctx, repo.db, func(tx core.DBTransactor) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO users (id, username, full_name, role_id, is_active, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			acct.ID, acct.Username, acct.FullName, acct.RoleID, acct.IsActive, acct.PasswordHash, acct.CreatedAt, acct.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "inserting user")
		}

		if linkedEntityID == "" {
			return nil
		}
		var table string
		switch access.KindOfRole(acct.RoleID) {
		case access.KindProfessor:
			table = "professors"
		case access.KindStudent:
			table = "students"
		default:
			return nil
		}

		res, err := tx.ExecContext(ctx, `UPDATE `+table+` SET user_id = $1 WHERE id = $2`, acct.ID, linkedEntityID)
		if err != nil {
			return errors.Wrapf(err, "binding %s record", table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrapf(err, "binding %s record", table)
		}
		if n == 0 {
			return errors.Errorf("no %s record with id %s", table, linkedEntityID)
		}
		return nil
	})
	if err != nil {
		return account.Account{}, err
	}
	return repo.GetAccountByID(ctx, acct.ID)
}

func (repo *accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	var rows []accountRow
	if err := repo.db.SelectContext(ctx, &rows, selectAccount+` ORDER BY u.username`); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	accounts := make([]account.Account, len(rows))
	for i, row := range rows {
		accounts[i] = row.toAccount()
	}
	return accounts, nil
}

func (repo *accountRepository) getAccount(ctx context.Context, where string, args ...interface{}) (account.Account, error) {
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, selectAccount+" WHERE "+where, args...); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "getting account")
	}
	return row.toAccount(), nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	return repo.getAccount(ctx, `u.id = $1`, id)
}

func (repo *accountRepository) GetAccountByUsername(ctx context.Context, username string) (account.Account, error) {
	return repo.getAccount(ctx, `u.username = $1`, username)
}

func (repo *accountRepository) GetActiveAccountByUsername(ctx context.Context, username string) (account.Account, error) {
	return repo.getAccount(ctx, `u.username = $1 AND u.is_active`, username)
}

// ContactEmailForAccount resolves the email on the linked professor or
// student record; accounts without a linked record have none.
func (repo *accountRepository) ContactEmailForAccount(ctx context.Context, accountID string) (string, error) {
	var email string
	err := repo.db.GetContext(ctx, &email, `
SELECT contact_email FROM professors WHERE user_id = $1 AND contact_email <> ''
UNION
SELECT contact_email FROM students WHERE user_id = $1 AND contact_email <> ''
LIMIT 1`, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", account.ErrNotFound
		}
		return "", errors.Wrap(err, "getting contact email")
	}
	return email, nil
}

func (repo *accountRepository) updateAccount(ctx context.Context, query string, args ...interface{}) error {
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (repo *accountRepository) UpdatePasswordHash(ctx context.Context, accountID string, hash []byte) error {
	return repo.updateAccount(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, accountID)
}

func (repo *accountRepository) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	return repo.updateAccount(ctx, `UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2`, active, accountID)
}

func (repo *accountRepository) TouchLastLogin(ctx context.Context, accountID string) error {
	return repo.updateAccount(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, accountID)
}
