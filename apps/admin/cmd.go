package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/user"
	"github.com/trezcool/tathmini/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	repos  *database.Repositories
	usrSvc user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addteacher -name NAME -email EMAIL - create a teacher account")
	fmt.Println("  addadmin -name NAME -email EMAIL - create an admin account")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password")
	fmt.Println("  seed - create the default staff accounts")
	fmt.Println("  migrate COMMAND [ARGS...] - run a database migration command (up, down, status, ...)")
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) runAddStaff(role string, args []string) error {
	cmd := flag.NewFlagSet("add"+role, flag.ContinueOnError)
	name := cmd.String("name", "", "The account's full name.")
	email := cmd.String("email", "", "The account's email. The password will be prompted next.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		cmd.Usage()
		return errHelp
	}

	pwd, err := promptPassword("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		cmd.Usage()
		return errHelp
	}
	confirm, err := promptPassword("Confirm password:")
	if err != nil {
		return err
	}
	return cli.addStaff(*name, *email, pwd, confirm, role)
}

func (cli *commandLine) runResetPassword(args []string) error {
	cmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	email := cmd.String("email", "", "The user's email. The password will be prompted next.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		cmd.Usage()
		return errHelp
	}

	pwd, err := promptPassword("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		cmd.Usage()
		return errHelp
	}
	confirm, err := promptPassword("Confirm password:")
	if err != nil {
		return err
	}
	return cli.resetPassword(*email, pwd, confirm)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "addteacher":
		return cli.runAddStaff(user.RoleTeacher, args[2:])
	case "addadmin":
		return cli.runAddStaff(user.RoleAdmin, args[2:])
	case "resetpassword":
		return cli.runResetPassword(args[2:])
	case "seed":
		return cli.seed()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
