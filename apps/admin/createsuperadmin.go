package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
)

// createSuperAdmin creates an active Super Admin account. Existing
// usernames are refused rather than promoted.
func (cli *commandLine) createSuperAdmin(uname, fullName, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	fullName = core.CleanString(fullName)

	if err := cli.acctRepo.CheckUsernameUniqueness(ctx, uname); err != nil {
		return err
	}

	acct := account.Account{
		Username: uname,
		FullName: fullName,
		RoleID:   access.RoleSuperAdmin,
		IsActive: true,
	}
	if err := acct.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err := cli.acctRepo.CreateAccount(ctx, acct, "")
	return err
}
