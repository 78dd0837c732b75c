package main

import (
	"context"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/school"
)

// addAdmin creates an administrator account with its profile.
func (cli *commandLine) addAdmin(uname, fullname, mail, pwd string) error {
	ctx := context.Background()

	usr := school.User{
		Username:        core.CleanString(uname, true /* lower */),
		IsAdministrator: true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	det := school.UserDetail{
		Fullname:            core.CleanString(fullname),
		MatriculationNumber: "admin-" + usr.Username,
		Mail:                core.CleanString(mail, true /* lower */),
	}

	_, _, err := cli.repo.CreateUserWithDetail(ctx, usr, det)
	return err
}
