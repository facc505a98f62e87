package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core/user"
)

type (
	userApi struct {
		*Server
		svc user.Service
	}

	LoginResponse struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		User      user.User `json:"user"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func registerUserAPI(g *echo.Group, auth []echo.MiddlewareFunc, s *Server) {
	api := userApi{Server: s, svc: s.deps.UserSvc}

	ug := g.Group("/users")
	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", auth...)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me)

	tg := g.Group("/teachers", append(auth, roleMiddleware(user.RoleAdmin))...)
	tg.GET("", api.queryTeachers)
	tg.POST("", api.addTeacher)

	sg := g.Group("/students", append(auth, roleMiddleware(user.RoleAdmin, user.RoleTeacher))...)
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent)
	sg.DELETE("/:id", api.deleteStudent)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}

	sess, usr, err := api.svc.Login(ctx.Request().Context(), data)
	if api.deps.Metrics != nil {
		api.deps.Metrics.LoginAttempt(err == nil)
	}
	if err != nil {
		return err
	}

	token, err := api.GenerateToken(sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: usr})
}

func (api *userApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Logout(ctx.Request().Context(), claims.Id); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out."})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) queryTeachers(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.svc.Teachers(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *userApi) addTeacher(ctx echo.Context) error {
	var data user.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	teacher, err := api.svc.AddTeacher(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding teacher")
	}
	return ctx.JSON(http.StatusCreated, teacher)
}

func (api *userApi) queryStudents(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.Students(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *userApi) createStudent(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	student, err := api.svc.CreateStudent(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *userApi) deleteStudent(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
