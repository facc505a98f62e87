package main

import (
	"context"

	"github.com/trezcool/tathmini/core/user"
)

func (cli *commandLine) resetPassword(email, pwd, confirm string) error {
	return cli.usrSvc.ResetPassword(context.Background(), user.ResetUserPassword{
		Email:           email,
		Password:        pwd,
		PasswordConfirm: confirm,
	})
}
