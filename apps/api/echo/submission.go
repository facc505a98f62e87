package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
)

type (
	submissionApi struct {
		*Server
		svc submission.Service
	}

	submissionResponse struct {
		submission.Submission
		Status string `json:"status"`
		Score  *int   `json:"score"`
	}
)

func newSubmissionResponse(sub submission.Submission) submissionResponse {
	resp := submissionResponse{Submission: sub, Status: sub.Status()}
	if score, ok := sub.Score(); ok {
		resp.Score = &score
	}
	return resp
}

func newSubmissionResponses(subs []submission.Submission) []submissionResponse {
	resps := make([]submissionResponse, 0, len(subs))
	for _, s := range subs {
		resps = append(resps, newSubmissionResponse(s))
	}
	return resps
}

func registerSubmissionAPI(g *echo.Group, auth []echo.MiddlewareFunc, s *Server) {
	api := submissionApi{Server: s, svc: s.deps.SubmissionSvc}

	sg := g.Group("/submissions", auth...)
	sg.GET("", api.query, roleMiddleware(user.RoleAdmin))
	sg.PUT("/:id/marks", api.awardMarks, roleMiddleware(user.RoleTeacher))
}

// Handlers

func (api *submissionApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.All(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, newSubmissionResponses(subs))
}

func (api *submissionApi) awardMarks(ctx echo.Context) error {
	var data submission.AwardMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AwardMarks")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	sub, err := api.svc.AwardMarks(ctx.Request().Context(), usr, ctx.Param("id"), *data.Marks)
	if err != nil {
		return errors.Wrap(err, "awarding marks")
	}
	if api.deps.Metrics != nil {
		api.deps.Metrics.MarksAwarded()
	}
	return ctx.JSON(http.StatusOK, newSubmissionResponse(sub))
}
