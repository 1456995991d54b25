package testutil

import (
	"context"
	"testing"

	"github.com/mzalendo/daftari/core/account"
)

// NopLogger discards everything; tests that assert on behavior, not logs.
type NopLogger struct{}

func (NopLogger) Enable(bool)                          {}
func (NopLogger) Debug(string, ...interface{})         {}
func (NopLogger) Info(string, ...interface{})          {}
func (NopLogger) Warn(string, ...interface{})          {}
func (NopLogger) Error(string, error, ...interface{})  {}
func (NopLogger) Fatal(msg string, err error, _ ...interface{}) {
	panic(msg)
}

// CreateAccount seeds an account through the repository, failing the test
// on any error.
func CreateAccount(
	t *testing.T,
	repo account.Repository,
	username, fullName, roleID, pwd string,
	isActive bool,
	linkedEntityID string,
) account.Account {
	t.Helper()

	acct := account.Account{
		Username: username,
		FullName: fullName,
		RoleID:   roleID,
		IsActive: isActive,
	}
	if pwd != "" {
		if err := acct.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acct, err := repo.CreateAccount(context.Background(), acct, linkedEntityID)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acct
}
