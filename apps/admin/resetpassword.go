package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	acct, err := cli.acctRepo.GetAccountByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err = acct.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return cli.acctRepo.UpdatePasswordHash(ctx, acct.ID, acct.PasswordHash)
}
