package dig_container

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/tathmini/apps/api/echo"
	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
	emailsvc "github.com/trezcool/tathmini/services/email"
	logsvc "github.com/trezcool/tathmini/services/logger"
	metricsvc "github.com/trezcool/tathmini/services/metrics"
	reportsvc "github.com/trezcool/tathmini/services/report"
	"github.com/trezcool/tathmini/storage/database"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	ServerParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		MailSvc       core.EmailService
		UserSvc       user.Service
		AssessmentSvc assessment.Service
		SubmissionSvc submission.Service
		ReportWriter  submission.ReportWriter
		Metrics       *metricsvc.Metrics
	}
)

func newLogger(conf *core.Config) core.Logger {
	std := logsvc.NewConsoleLogger(conf)
	return logsvc.NewRollbarLogger(std.With().Str("component", "api").Logger(), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewConsoleLogger(conf)
	return logsvc.NewRollbarLogger(std.With().Str("component", "db").Caller().Logger(), conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) *database.Repositories {
	repos, err := database.NewRepositories(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repos
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	assessment.RegisterValidators(validate, translator)
	return validate
}

func newSubmissionService(repos *database.Repositories, validate *validator.Validate) submission.Service {
	return submission.NewService(repos.Submissions, repos.Assessments, repos.Users, validate)
}

func newUserService(
	repos *database.Repositories,
	subSvc submission.Service,
	mailSvc core.EmailService,
	validate *validator.Validate,
	conf *core.Config,
) user.Service {
	return user.NewService(repos.Users, subSvc, mailSvc, validate, conf)
}

func newAssessmentService(repos *database.Repositories, validate *validator.Validate) assessment.Service {
	return assessment.NewService(repos.Assessments, repos.Users, validate)
}

func newShutdownChannel() chan os.Signal {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

func newServer(shutdown chan os.Signal, p ServerParams) *echoapi.Server {
	return echoapi.NewServer(shutdown, &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		MailSvc:       p.MailSvc,
		UserSvc:       p.UserSvc,
		AssessmentSvc: p.AssessmentSvc,
		SubmissionSvc: p.SubmissionSvc,
		ReportWriter:  p.ReportWriter,
		Metrics:       p.Metrics,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(newSubmissionService))
	must(c.Provide(newUserService))
	must(c.Provide(newAssessmentService))
	must(c.Provide(reportsvc.NewExcelWriter))
	must(c.Provide(metricsvc.New))
	must(c.Provide(newShutdownChannel))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
