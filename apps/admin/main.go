package main

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
	emailsvc "github.com/trezcool/tathmini/services/email"
	logsvc "github.com/trezcool/tathmini/services/logger"
	"github.com/trezcool/tathmini/storage/database"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	std := logsvc.NewConsoleLogger(conf)
	logger = logsvc.NewRollbarLogger(std.With().Str("component", "admin").Logger(), conf)

	// set up DB & services
	repos, err := database.NewRepositories(conf)
	errAndDie(err)

	cli := newCommandLine(conf, repos)
	err = cli.run(os.Args)
	if cerr := repos.Close(); cerr != nil {
		logger.Error("closing database", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("error: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func newCommandLine(conf *core.Config, repos *database.Repositories) *commandLine {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	assessment.RegisterValidators(validate, translator)

	subSvc := submission.NewService(repos.Submissions, repos.Assessments, repos.Users, validate)
	mailSvc := emailsvc.NewService(conf, logger)

	return &commandLine{
		conf:   conf,
		repos:  repos,
		usrSvc: user.NewService(repos.Users, subSvc, mailSvc, validate, conf),
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
