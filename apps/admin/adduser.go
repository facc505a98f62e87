package main

import (
	"context"
	"fmt"

	"github.com/trezcool/tathmini/core/user"
)

// addStaff creates a teacher or an admin account.
func (cli *commandLine) addStaff(name, email, pwd, confirm, role string) error {
	usr, err := cli.usrSvc.CreateStaff(context.Background(), user.NewStaff{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: confirm,
	}, role)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s %s <%s>\n", usr.Role, usr.Name, usr.Email)
	return nil
}

func (cli *commandLine) seed() error {
	n, err := cli.usrSvc.SeedStaff(context.Background(), user.DefaultSeedAccounts)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d staff accounts\n", n)
	return nil
}
