package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tathmini/assets"
	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
	emailsvc "github.com/trezcool/tathmini/services/email"
	"github.com/trezcool/tathmini/tests"
)

const staffPwd = "Kx9#mQ2!vR"

type fixture struct {
	repos   testutil.Repos
	svc     user.Service
	admin   user.User
	teacher user.User
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	require.NoError(t, core.LoadEmailTemplates(assets.EmailTemplates, assets.EmailTemplatesDir, conf))
	emailsvc.ResetSentMessages()

	repos := testutil.NewRepos()
	validate := testutil.NewValidate()
	subSvc := submission.NewService(repos.Submissions, repos.Assessments, repos.Users, validate)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, testutil.NewLogger(conf))

	return fixture{
		repos:   repos,
		svc:     user.NewService(repos.Users, subSvc, mailSvc, validate, conf),
		admin:   testutil.CreateUser(t, repos.Users, "Admin", "admin@test.cd", staffPwd, user.RoleAdmin, ""),
		teacher: testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", staffPwd, user.RoleTeacher, ""),
	}
}

func fieldErr(t *testing.T, err error) core.FieldError {
	t.Helper()
	verr, ok := errors.Cause(err).(*core.ValidationError)
	require.Truef(t, ok, "want *core.ValidationError, got %T (%v)", err, err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0]
}

func Test_service_Login(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	student := testutil.CreateUser(t, f.repos.Users, "Student", "student@test.cd", "secret1", user.RoleStudent, f.teacher.ID)

	tests := []struct {
		name    string
		creds   user.LoginCredentials
		wantUsr user.User
		wantErr error
	}{
		{name: "admin", creds: user.LoginCredentials{Email: "admin@test.cd", Password: staffPwd}, wantUsr: f.admin},
		{name: "teacher, mixed case email", creds: user.LoginCredentials{Email: " Teacher@Test.cd ", Password: staffPwd}, wantUsr: f.teacher},
		{name: "student", creds: user.LoginCredentials{Email: "student@test.cd", Password: "secret1"}, wantUsr: student},
		{name: "wrong password", creds: user.LoginCredentials{Email: "admin@test.cd", Password: "lol"}, wantErr: user.ErrAuthenticationFailed},
		{name: "unknown email", creds: user.LoginCredentials{Email: "lol@test.cd", Password: staffPwd}, wantErr: user.ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, usr, err := f.svc.Login(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsr.ID, usr.ID)
			assert.Equal(t, usr.ID, sess.UserID)
			assert.Equal(t, usr.Role, sess.Role)
			assert.Equal(t, usr.CreatedBy, sess.CreatedBy)
			assert.True(t, sess.ExpiresAt.After(sess.CreatedAt))

			got, err := f.svc.GetSession(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, sess.ID, got.ID)
		})
	}

	t.Run("missing credentials", func(t *testing.T) {
		_, _, err := f.svc.Login(ctx, user.LoginCredentials{})
		assert.Error(t, err)
	})
}

// A student may share the email of a staff member: staff accounts are checked first.
func Test_service_Login_sharedEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	student := testutil.CreateUser(t, f.repos.Users, "Twin", "teacher@test.cd", "student1", user.RoleStudent, f.teacher.ID)

	_, usr, err := f.svc.Login(ctx, user.LoginCredentials{Email: "teacher@test.cd", Password: staffPwd})
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, usr.ID)

	_, usr, err = f.svc.Login(ctx, user.LoginCredentials{Email: "teacher@test.cd", Password: "student1"})
	require.NoError(t, err)
	assert.Equal(t, student.ID, usr.ID)
}

func Test_service_Logout_and_expiry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sess, _, err := f.svc.Login(ctx, user.LoginCredentials{Email: "admin@test.cd", Password: staffPwd})
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, sess.ID))
	_, err = f.svc.GetSession(ctx, sess.ID)
	assert.Equal(t, user.ErrSessionNotFound, errors.Cause(err))

	sess, _, err = f.svc.Login(ctx, user.LoginCredentials{Email: "admin@test.cd", Password: staffPwd})
	require.NoError(t, err)
	core.NowFunc = func() time.Time { return sess.ExpiresAt.Add(time.Second) }
	defer func() { core.NowFunc = time.Now }()

	_, err = f.svc.GetSession(ctx, sess.ID)
	assert.Equal(t, user.ErrSessionNotFound, errors.Cause(err))
}

func Test_service_CreateStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("permission denied", func(t *testing.T) {
		_, err := f.svc.CreateStudent(ctx, f.admin, user.NewStudent{Name: "S", Email: "s@test.cd"})
		assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.svc.CreateStudent(ctx, f.teacher, user.NewStudent{Name: " ", Email: "lol"})
		assert.Error(t, err)
	})

	t.Run("generated password & welcome mail", func(t *testing.T) {
		created, err := f.svc.CreateStudent(ctx, f.teacher, user.NewStudent{Name: " Jane Doe ", Email: "Jane@Test.cd"})
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", created.Name)
		assert.Equal(t, "jane@test.cd", created.Email)
		assert.Equal(t, user.RoleStudent, created.Role)
		assert.Equal(t, f.teacher.ID, created.CreatedBy)
		assert.Len(t, created.Password, 8)
		assert.NoError(t, created.CheckPassword(created.Password))

		msg, ok := emailsvc.LastSentMessage()
		require.True(t, ok)
		assert.Equal(t, "jane@test.cd", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, created.Password)
		assert.Contains(t, msg.TextContent, f.teacher.Name)
		assert.NotEmpty(t, msg.HTMLContent)
	})

	t.Run("given password", func(t *testing.T) {
		created, err := f.svc.CreateStudent(ctx, f.teacher, user.NewStudent{Name: "John", Email: "john@test.cd", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "secret", created.Password)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.svc.CreateStudent(ctx, f.teacher, user.NewStudent{Name: "Jane 2", Email: "jane@test.cd"})
		assert.Equal(t, "email", fieldErr(t, err).Field)
	})

	t.Run("staff email is allowed", func(t *testing.T) {
		_, err := f.svc.CreateStudent(ctx, f.teacher, user.NewStudent{Name: "Twin", Email: "admin@test.cd"})
		assert.NoError(t, err)
	})
}

func Test_service_DeleteStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.repos.Users, "Other", "other@test.cd", staffPwd, user.RoleTeacher, "")
	student := testutil.CreateUser(t, f.repos.Users, "Student", "student@test.cd", "secret1", user.RoleStudent, f.teacher.ID)
	classmate := testutil.CreateUser(t, f.repos.Users, "Classmate", "mate@test.cd", "", user.RoleStudent, f.teacher.ID)
	quiz := testutil.CreateAssessment(t, f.repos.Assessments, f.teacher.ID, "Quiz", core.Now().Add(time.Hour),
		testutil.TextQuestion("q1", 2))
	exam := testutil.CreateAssessment(t, f.repos.Assessments, f.teacher.ID, "Exam", core.Now().Add(time.Hour),
		testutil.TextQuestion("q1", 4))
	testutil.CreateSubmission(t, f.repos.Submissions, submission.Submission{AssessmentID: quiz.ID, StudentID: student.ID})
	testutil.CreateSubmission(t, f.repos.Submissions, submission.Submission{AssessmentID: exam.ID, StudentID: student.ID})
	kept := testutil.CreateSubmission(t, f.repos.Submissions, submission.Submission{AssessmentID: quiz.ID, StudentID: classmate.ID})

	subs, err := f.repos.Submissions.FilterSubmissions(ctx, submission.QueryFilter{StudentID: student.ID})
	require.NoError(t, err)
	require.Len(t, subs, 2)

	sess, _, err := f.svc.Login(ctx, user.LoginCredentials{Email: "student@test.cd", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(f.svc.DeleteStudent(ctx, other, student.ID)))
	assert.Equal(t, user.ErrNotFound, errors.Cause(f.svc.DeleteStudent(ctx, f.admin, f.teacher.ID)))
	assert.Equal(t, user.ErrNotFound, errors.Cause(f.svc.DeleteStudent(ctx, f.teacher, "lol")))

	require.NoError(t, f.svc.DeleteStudent(ctx, f.teacher, student.ID))

	_, err = f.svc.GetByID(ctx, student.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	_, err = f.svc.GetSession(ctx, sess.ID)
	assert.Error(t, err)
	subs, err = f.repos.Submissions.FilterSubmissions(ctx, submission.QueryFilter{StudentID: student.ID})
	require.NoError(t, err)
	assert.Empty(t, subs)
	_, err = f.repos.Submissions.GetSubmissionByID(ctx, kept.ID)
	assert.NoError(t, err)
}

func Test_service_AddTeacher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ns := user.NewStaff{Name: "Ada", Email: "ada@test.cd", Password: staffPwd, PasswordConfirm: staffPwd}

	_, err := f.svc.AddTeacher(ctx, f.teacher, ns)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	usr, err := f.svc.AddTeacher(ctx, f.admin, ns)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.Empty(t, usr.CreatedBy)

	_, err = f.svc.AddTeacher(ctx, f.admin, ns)
	assert.Equal(t, "email", fieldErr(t, err).Field)

	_, err = f.svc.CreateStaff(ctx, ns, user.RoleStudent)
	assert.Error(t, err)
}

func Test_service_rosters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.repos.Users, "Other", "other@test.cd", staffPwd, user.RoleTeacher, "")
	s1 := testutil.CreateUser(t, f.repos.Users, "S1", "s1@test.cd", "secret1", user.RoleStudent, f.teacher.ID)
	s2 := testutil.CreateUser(t, f.repos.Users, "S2", "s2@test.cd", "secret1", user.RoleStudent, other.ID)

	students, err := f.svc.Students(ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, s1.ID, students[0].ID)

	students, err = f.svc.Students(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	_, err = f.svc.Students(ctx, s2)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	teachers, err := f.svc.Teachers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	_, err = f.svc.Teachers(ctx, f.teacher)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
}

func Test_service_ResetPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	newPwd := "Zq7&nW4@tY"

	sess, _, err := f.svc.Login(ctx, user.LoginCredentials{Email: "teacher@test.cd", Password: staffPwd})
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, user.ResetUserPassword{Email: "teacher@test.cd", Password: "weak", PasswordConfirm: "weak"})
	assert.Error(t, err)

	err = f.svc.ResetPassword(ctx, user.ResetUserPassword{Email: "lol@test.cd", Password: newPwd, PasswordConfirm: newPwd})
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	require.NoError(t, f.svc.ResetPassword(ctx, user.ResetUserPassword{Email: "Teacher@test.cd", Password: newPwd, PasswordConfirm: newPwd}))

	_, err = f.svc.GetSession(ctx, sess.ID)
	assert.Error(t, err)
	_, _, err = f.svc.Login(ctx, user.LoginCredentials{Email: "teacher@test.cd", Password: newPwd})
	assert.NoError(t, err)
}

func Test_service_SeedStaff(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	accounts := []user.SeedAccount{
		{Name: "Admin", Email: "admin@test.cd", Password: "x", Role: user.RoleAdmin}, // exists
		{Name: "T1", Email: "t1@test.cd", Password: "password1", Role: user.RoleTeacher},
	}

	n, err := f.svc.SeedStaff(ctx, accounts)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.SeedStaff(ctx, accounts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, _, err = f.svc.Login(ctx, user.LoginCredentials{Email: "t1@test.cd", Password: "password1"})
	assert.NoError(t, err)
}
