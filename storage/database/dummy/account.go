package dummydb

import (
	"context"
	"time"

	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) withRoleName(acct account.Account) account.Account {
	if r, ok := repo.db.roles[acct.RoleID]; ok {
		acct.RoleName = r.Name
	}
	return acct
}

func (repo *accountRepository) CheckUsernameUniqueness(_ context.Context, username string, excluded ...account.Account) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, acct := range repo.db.accounts {
		if acct.Username != username {
			continue
		}
		if !isExcluded(*acct, excluded) {
			return account.ErrUsernameExists
		}
	}
	return nil
}

func isExcluded(acct account.Account, excluded []account.Account) bool {
	for _, e := range excluded {
		if e.ID == acct.ID {
			return true
		}
	}
	return false
}

func (repo *accountRepository) CreateAccount(_ context.Context, acct account.Account, linkedEntityID string) (account.Account, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	acct.ID = repo.db.nextID("USR")
	cp := acct
	repo.db.accounts[acct.ID] = &cp

	if linkedEntityID != "" {
		switch access.KindOfRole(acct.RoleID) {
		case access.KindProfessor:
			repo.db.professors[acct.ID] = linkedEntityID
		case access.KindStudent:
			repo.db.students[acct.ID] = linkedEntityID
		}
	}
	return repo.withRoleName(acct), nil
}

func (repo *accountRepository) QueryAllAccounts(_ context.Context) ([]account.Account, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	accounts := make([]account.Account, 0, len(repo.db.accounts))
	for _, acct := range repo.db.accounts {
		accounts = append(accounts, repo.withRoleName(*acct))
	}
	return accounts, nil
}

func (repo *accountRepository) GetAccountByID(_ context.Context, id string) (account.Account, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if acct, ok := repo.db.accounts[id]; ok {
		return repo.withRoleName(*acct), nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByUsername(_ context.Context, username string) (account.Account, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, acct := range repo.db.accounts {
		if acct.Username == username {
			return repo.withRoleName(*acct), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetActiveAccountByUsername(_ context.Context, username string) (account.Account, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, acct := range repo.db.accounts {
		if acct.Username == username && acct.IsActive {
			return repo.withRoleName(*acct), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) ContactEmailForAccount(_ context.Context, accountID string) (string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if email, ok := repo.db.contactEmails[accountID]; ok {
		return email, nil
	}
	return "", account.ErrNotFound
}

func (repo *accountRepository) UpdatePasswordHash(_ context.Context, accountID string, hash []byte) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	acct, ok := repo.db.accounts[accountID]
	if !ok {
		return account.ErrNotFound
	}
	acct.PasswordHash = hash
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *accountRepository) SetAccountActive(_ context.Context, accountID string, active bool) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	acct, ok := repo.db.accounts[accountID]
	if !ok {
		return account.ErrNotFound
	}
	acct.IsActive = active
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *accountRepository) TouchLastLogin(_ context.Context, accountID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	acct, ok := repo.db.accounts[accountID]
	if !ok {
		return account.ErrNotFound
	}
	acct.LastLogin = time.Now().UTC()
	return nil
}
