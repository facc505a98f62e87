package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/tathmini/apps/api/echo"
	"github.com/trezcool/tathmini/core/user"
	emailsvc "github.com/trezcool/tathmini/services/email"
	"github.com/trezcool/tathmini/tests"
)

const staffPwd = "Kx9#mQ2!vR"

func Test_home(t *testing.T) {
	e := setup(t)
	rec := e.do(newRequest(http.MethodGet, "/"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Tathmini API!", rec.Body.String())
}

func Test_userApi_login(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.repos.Users, "Teacher", "teacher@test.cd", staffPwd, user.RoleTeacher, "")
	student := testutil.CreateUser(t, e.repos.Users, "Student", "student@test.cd", "secret1", user.RoleStudent, teacher.ID)

	e.run(t, []httpTest{
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fields("email", errFieldRequired, "password", errFieldRequired)),
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marchallObj(t, user.LoginCredentials{Email: "teacher@test.cd", Password: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errAuthFailed),
		},
		{
			name:     "unknown email",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marchallObj(t, user.LoginCredentials{Email: "lol@test.cd", Password: staffPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errAuthFailed),
		},
	})

	for _, tc := range []struct {
		name, email, pwd string
		want             user.User
	}{
		{name: "teacher", email: "Teacher@test.cd", pwd: staffPwd, want: teacher},
		{name: "student", email: "student@test.cd", pwd: "secret1", want: student},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(newRequest(http.MethodPost, "/v1/users/login",
				marchallObj(t, user.LoginCredentials{Email: tc.email, Password: tc.pwd})))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp echoapi.LoginResponse
			unmarshall(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, tc.want.ID, resp.User.ID)
			assert.Equal(t, tc.want.Role, resp.User.Role)
			assert.NotContains(t, rec.Body.String(), "password")

			rec = e.do(newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token))
			require.Equal(t, http.StatusOK, rec.Code)
			var me user.User
			unmarshall(t, rec, &me)
			assert.Equal(t, tc.want.ID, me.ID)
		})
	}
}

func Test_userApi_logout(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, "")
	token := e.getToken(t, admin)
	other := e.getToken(t, admin)

	e.run(t, []httpTest{
		{name: "no token", method: http.MethodPost, path: "/v1/users/logout", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "bad token", method: http.MethodGet, path: "/v1/users/me", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "logout", method: http.MethodPost, path: "/v1/users/logout", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Logged out."})},
		{name: "revoked token", method: http.MethodGet, path: "/v1/users/me", token: token, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errRevoked)},
		{name: "other session still valid", method: http.MethodGet, path: "/v1/users/me", token: other, wantCode: http.StatusOK},
	})
}

func Test_userApi_teachers(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, "")
	teacher := testutil.CreateUser(t, e.repos.Users, "Teacher", "teacher@test.cd", "", user.RoleTeacher, "")
	adminToken := e.getToken(t, admin)
	teacherToken := e.getToken(t, teacher)

	newTeacher := user.NewStaff{Name: "Ada", Email: "ada@test.cd", Password: staffPwd, PasswordConfirm: staffPwd}

	e.run(t, []httpTest{
		{name: "list: teacher", method: http.MethodGet, path: "/v1/teachers", token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "list", method: http.MethodGet, path: "/v1/teachers", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{teacher})},
		{name: "add: teacher", method: http.MethodPost, path: "/v1/teachers", token: teacherToken, body: marchallObj(t, newTeacher), wantCode: http.StatusForbidden},
		{
			name:     "add: invalid",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			token:    adminToken,
			body:     []byte(`{"name": "Ada", "email": "ada@test.cd", "password": "password1", "password_confirm": "password1"}`),
			wantCode: http.StatusBadRequest,
		},
		{name: "add", method: http.MethodPost, path: "/v1/teachers", token: adminToken, body: marchallObj(t, newTeacher), wantCode: http.StatusCreated},
		{
			name:     "add: duplicate",
			method:   http.MethodPost,
			path:     "/v1/teachers",
			token:    adminToken,
			body:     marchallObj(t, newTeacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fields("email", user.ErrEmailExists.Error())),
		},
	})

	teachers, err := e.usrSvc.Teachers(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
}

func Test_userApi_students(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, "")
	teacher := testutil.CreateUser(t, e.repos.Users, "Teacher", "teacher@test.cd", "", user.RoleTeacher, "")
	other := testutil.CreateUser(t, e.repos.Users, "Other", "other@test.cd", "", user.RoleTeacher, "")
	theirs := testutil.CreateUser(t, e.repos.Users, "Theirs", "theirs@test.cd", "", user.RoleStudent, other.ID)
	teacherToken := e.getToken(t, teacher)
	studentToken := e.getToken(t, theirs)

	// create
	rec := e.do(newAuthRequest(http.MethodPost, "/v1/students", teacherToken, []byte(`{"name": " Jane Doe ", "email": "JANE@test.cd"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created user.CreatedStudent
	unmarshall(t, rec, &created)
	assert.Equal(t, "Jane Doe", created.Name)
	assert.Equal(t, "jane@test.cd", created.Email)
	assert.Equal(t, teacher.ID, created.CreatedBy)
	assert.Len(t, created.Password, 8)

	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "jane@test.cd", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, created.Password)

	// the generated password works
	rec = e.do(newRequest(http.MethodPost, "/v1/users/login",
		marchallObj(t, user.LoginCredentials{Email: "jane@test.cd", Password: created.Password})))
	assert.Equal(t, http.StatusOK, rec.Code)

	e.run(t, []httpTest{
		{
			name:     "create: duplicate",
			method:   http.MethodPost,
			path:     "/v1/students",
			token:    teacherToken,
			body:     []byte(`{"name": "Jane", "email": "jane@test.cd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fields("email", user.ErrEmailExists.Error())),
		},
		{
			name:     "create: invalid",
			method:   http.MethodPost,
			path:     "/v1/students",
			token:    teacherToken,
			body:     []byte(`{"email": "jane"}`),
			wantCode: http.StatusBadRequest,
		},
		{name: "create: admin", method: http.MethodPost, path: "/v1/students", token: e.getToken(t, admin), body: []byte(`{"name": "X", "email": "x@test.cd"}`), wantCode: http.StatusForbidden},
		{name: "create: student", method: http.MethodPost, path: "/v1/students", token: studentToken, body: []byte(`{"name": "X", "email": "x@test.cd"}`), wantCode: http.StatusForbidden},
		{name: "list: student", method: http.MethodGet, path: "/v1/students", token: studentToken, wantCode: http.StatusForbidden},
		{name: "delete: not mine", method: http.MethodDelete, path: "/v1/students/" + theirs.ID, token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "delete: not found", method: http.MethodDelete, path: "/v1/students/lol", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "delete: a teacher", method: http.MethodDelete, path: "/v1/students/" + other.ID, token: teacherToken, wantCode: http.StatusNotFound},
	})

	t.Run("roster isolation", func(t *testing.T) {
		rec := e.do(newAuthRequest(http.MethodGet, "/v1/students", teacherToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var students []user.User
		unmarshall(t, rec, &students)
		require.Len(t, students, 1)
		assert.Equal(t, created.ID, students[0].ID)

		rec = e.do(newAuthRequest(http.MethodGet, "/v1/students", e.getToken(t, admin)))
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshall(t, rec, &students)
		assert.Len(t, students, 2)
	})

	t.Run("delete", func(t *testing.T) {
		janeToken := e.getToken(t, created.User)
		rec := e.do(newAuthRequest(http.MethodDelete, "/v1/students/"+created.ID, teacherToken))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = e.do(newAuthRequest(http.MethodGet, "/v1/users/me", janeToken))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = e.do(newAuthRequest(http.MethodDelete, "/v1/students/"+theirs.ID, e.getToken(t, admin)))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
