package echoapi

import (
	"bytes"
	"mime"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
)

type assessmentApi struct {
	*Server
	svc    assessment.Service
	subSvc submission.Service
}

func registerAssessmentAPI(g *echo.Group, auth []echo.MiddlewareFunc, s *Server) {
	api := assessmentApi{Server: s, svc: s.deps.AssessmentSvc, subSvc: s.deps.SubmissionSvc}
	staff := roleMiddleware(user.RoleAdmin, user.RoleTeacher)

	ag := g.Group("/assessments", auth...)
	ag.GET("", api.query)
	ag.POST("", api.create, roleMiddleware(user.RoleTeacher))

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/submissions", api.querySubmissions, staff)
	dg.GET("/export", api.export, staff)
	dg.POST("/export/email", api.emailExport, staff)

	// the current student's submission
	sg := dg.Group("/submission", roleMiddleware(user.RoleStudent))
	sg.GET("", api.retrieveSubmission)
	sg.PUT("", api.saveSubmission)
}

// getAssessment returns the assessment in the path, if visible to usr.
func (api *assessmentApi) getAssessment(ctx echo.Context, usr user.User) (assessment.Assessment, error) {
	asmt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return assessment.Assessment{}, err
	}
	if !asmt.VisibleTo(usr) {
		return assessment.Assessment{}, core.ErrPermissionDenied
	}
	return asmt, nil
}

// Handlers

func (api *assessmentApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	switch {
	case usr.IsAdmin():
		asmts, err := api.svc.All(reqCtx, usr)
		if err != nil {
			return errors.Wrap(err, "querying assessments")
		}
		return ctx.JSON(http.StatusOK, asmts)
	case usr.IsTeacher():
		asmts, err := api.svc.TeacherAssessments(reqCtx, usr.ID)
		if err != nil {
			return errors.Wrap(err, "querying assessments")
		}
		return ctx.JSON(http.StatusOK, asmts)
	default:
		asmts, err := api.svc.StudentAssessments(reqCtx, usr.ID)
		if err != nil {
			return errors.Wrap(err, "querying assessments")
		}
		views := make([]assessment.StudentAssessment, 0, len(asmts))
		for _, a := range asmts {
			view, err := assessment.ForStudent(a)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return ctx.JSON(http.StatusOK, views)
	}
}

func (api *assessmentApi) create(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	asmt, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, asmt)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	asmt, err := api.getAssessment(ctx, usr)
	if err != nil {
		return errors.Wrap(err, "getting assessment")
	}
	if usr.IsStudent() {
		view, err := assessment.ForStudent(asmt)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, view)
	}
	return ctx.JSON(http.StatusOK, asmt)
}

func (api *assessmentApi) querySubmissions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	asmt, err := api.getAssessment(ctx, usr)
	if err != nil {
		return errors.Wrap(err, "getting assessment")
	}

	subs, err := api.subSvc.ForAssessment(ctx.Request().Context(), asmt.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, newSubmissionResponses(subs))
}

func (api *assessmentApi) export(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	rep, err := api.subSvc.Report(ctx.Request().Context(), usr, ctx.Param("id"), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "building report")
	}

	var buf bytes.Buffer
	if err = api.deps.ReportWriter.WriteReport(&buf, rep); err != nil {
		return errors.Wrap(err, "writing report")
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": rep.FileName})
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return ctx.Blob(http.StatusOK, api.deps.ReportWriter.ContentType(), buf.Bytes())
}

// emailExport sends the results report to the requesting user.
func (api *assessmentApi) emailExport(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	rep, err := api.subSvc.Report(ctx.Request().Context(), usr, ctx.Param("id"), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "building report")
	}

	var buf bytes.Buffer
	if err = api.deps.ReportWriter.WriteReport(&buf, rep); err != nil {
		return errors.Wrap(err, "writing report")
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      rep.Title + " - Results",
		TemplateName: "assessment_results",
		TemplateData: map[string]interface{}{
			"Name":      usr.Name,
			"Title":     rep.Title,
			"Students":  rep.Students,
			"Completed": rep.Completed,
		},
	}
	if err = msg.Attach(&buf, rep.FileName, api.deps.ReportWriter.ContentType()); err != nil {
		return errors.Wrap(err, "attaching report")
	}
	api.deps.MailSvc.SendMessages(msg)

	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The results will be sent to " + usr.Email + "."})
}

func (api *assessmentApi) retrieveSubmission(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	asmt, err := api.getAssessment(ctx, usr)
	if err != nil {
		return errors.Wrap(err, "getting assessment")
	}

	sub, err := api.subSvc.Get(ctx.Request().Context(), asmt.ID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, newSubmissionResponse(sub))
}

func (api *assessmentApi) saveSubmission(ctx echo.Context) error {
	var data submission.SaveAnswers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAnswers")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	sub, err := api.subSvc.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data.Answers)
	if err != nil {
		return errors.Wrap(err, "saving submission")
	}
	if api.deps.Metrics != nil {
		api.deps.Metrics.SubmissionSaved(sub.Status())
	}
	return ctx.JSON(http.StatusOK, newSubmissionResponse(sub))
}
