package main

import (
	"context"

	"github.com/trezcool/noodle/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()

	usr, err := cli.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	return cli.repo.UpdateUserPassword(ctx, usr.ID, usr.PasswordHash)
}
