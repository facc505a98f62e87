package user

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("invalid email or password")

	generatedPwdLen   = 8
	generatedPwdChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultSeedAccounts = []SeedAccount{
		{Name: "Admin", Email: "admin@example.com", Password: "Admin#2024", Role: RoleAdmin},
		{Name: "Teacher 1", Email: "teacher1@example.com", Password: "password1", Role: RoleTeacher},
		{Name: "Teacher 2", Email: "teacher2@example.com", Password: "password2", Role: RoleTeacher},
		{Name: "Teacher 3", Email: "teacher3@example.com", Password: "password3", Role: RoleTeacher},
		{Name: "Teacher 4", Email: "teacher4@example.com", Password: "password4", Role: RoleTeacher},
		{Name: "Teacher 5", Email: "teacher5@example.com", Password: "password5", Role: RoleTeacher},
		{Name: "Teacher 6", Email: "teacher6@example.com", Password: "password6", Role: RoleTeacher},
		{Name: "Teacher 7", Email: "teacher7@example.com", Password: "password7", Role: RoleTeacher},
		{Name: "Teacher 8", Email: "teacher8@example.com", Password: "password8", Role: RoleTeacher},
	}
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByEmail returns the User with the given email among the given roles.
		GetUserByEmail(ctx context.Context, email string, roles ...string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		DeleteUser(ctx context.Context, id string) error

		CreateSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, id string) (Session, error)
		DeleteSessions(ctx context.Context, ids ...string) error
		DeleteUserSessions(ctx context.Context, userID string) error
	}

	// SubmissionPurger removes the submissions of a deleted student.
	SubmissionPurger interface {
		DeleteByStudent(ctx context.Context, studentID string) error
	}

	Service interface {
		Login(ctx context.Context, creds LoginCredentials) (Session, User, error)
		Logout(ctx context.Context, sessionID string) error
		GetSession(ctx context.Context, sessionID string) (Session, error)
		GetByID(ctx context.Context, id string) (User, error)
		CreateStudent(ctx context.Context, actor User, ns NewStudent) (CreatedStudent, error)
		DeleteStudent(ctx context.Context, actor User, id string) error
		AddTeacher(ctx context.Context, actor User, ns NewStaff) (User, error)
		CreateStaff(ctx context.Context, ns NewStaff, role string) (User, error)
		Teachers(ctx context.Context, actor User) ([]User, error)
		Students(ctx context.Context, actor User) ([]User, error)
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
		SeedStaff(ctx context.Context, accounts []SeedAccount) (int, error)
	}

	service struct {
		repo     Repository
		purger   SubmissionPurger
		mailSvc  core.EmailService
		validate *validator.Validate
		sessTTL  time.Duration
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	purger SubmissionPurger,
	mailSvc core.EmailService,
	validate *validator.Validate,
	conf *core.Config,
) Service {
	return &service{
		repo:     repo,
		purger:   purger,
		mailSvc:  mailSvc,
		validate: validate,
		sessTTL:  conf.Server.JWTExpirationDelta,
	}
}

func (svc *service) emailTaken(ctx context.Context, email string, roles ...string) error {
	_, err := svc.repo.GetUserByEmail(ctx, email, roles...)
	switch errors.Cause(err) {
	case nil:
		return core.NewFieldError("email", ErrEmailExists)
	case ErrNotFound:
		return nil
	default:
		return err
	}
}

// Login checks staff accounts first, then students.
func (svc *service) Login(ctx context.Context, creds LoginCredentials) (Session, User, error) {
	if err := svc.validate.Struct(creds); err != nil {
		return Session{}, User{}, err
	}
	email := core.CleanString(creds.Email, true /* lower */)

	var usr User
	found := false
	for _, roles := range [][]string{StaffRoles, {RoleStudent}} {
		u, err := svc.repo.GetUserByEmail(ctx, email, roles...)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return Session{}, User{}, err
		}
		if u.CheckPassword(creds.Password) == nil {
			usr, found = u, true
			break
		}
	}
	if !found {
		return Session{}, User{}, ErrAuthenticationFailed
	}

	now := core.Now()
	sess := Session{
		ID:        core.NewID(),
		UserID:    usr.ID,
		Role:      usr.Role,
		CreatedBy: usr.CreatedBy,
		Name:      usr.Name,
		Email:     usr.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.sessTTL),
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, User{}, errors.Wrap(err, "creating session")
	}
	return sess, usr, nil
}

func (svc *service) Logout(ctx context.Context, sessionID string) error {
	return svc.repo.DeleteSessions(ctx, sessionID)
}

func (svc *service) GetSession(ctx context.Context, sessionID string) (Session, error) {
	sess, err := svc.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.IsExpired(core.Now()) {
		_ = svc.repo.DeleteSessions(ctx, sess.ID)
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) CreateStudent(ctx context.Context, actor User, ns NewStudent) (CreatedStudent, error) {
	if !actor.IsTeacher() {
		return CreatedStudent{}, core.ErrPermissionDenied
	}
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return CreatedStudent{}, err
	}
	if err := svc.emailTaken(ctx, ns.Email, RoleStudent); err != nil {
		return CreatedStudent{}, err
	}

	pwd := ns.Password
	if pwd == "" {
		var err error
		if pwd, err = generatePassword(); err != nil {
			return CreatedStudent{}, errors.Wrap(err, "generating password")
		}
	}

	usr := User{
		ID:        core.NewID(),
		Name:      ns.Name,
		Email:     ns.Email,
		Role:      RoleStudent,
		CreatedBy: actor.ID,
		CreatedAt: core.Now(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		return CreatedStudent{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return CreatedStudent{}, err
	}

	svc.sendWelcomeMail(actor, usr, pwd)
	return CreatedStudent{User: usr, Password: pwd}, nil
}

func (svc *service) sendWelcomeMail(teacher, student User, pwd string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your student account",
		TemplateName: "student_welcome",
		TemplateData: map[string]string{
			"Name":        student.Name,
			"Email":       student.Email,
			"Password":    pwd,
			"TeacherName": teacher.Name,
		},
	})
}

// DeleteStudent removes a student, its sessions and submissions.
// Only the creating teacher or an admin may delete a student.
func (svc *service) DeleteStudent(ctx context.Context, actor User, id string) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !usr.IsStudent() {
		return ErrNotFound
	}
	if !(actor.IsAdmin() || (actor.IsTeacher() && usr.CreatedBy == actor.ID)) {
		return core.ErrPermissionDenied
	}

	if err := svc.purger.DeleteByStudent(ctx, usr.ID); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}
	if err := svc.repo.DeleteUserSessions(ctx, usr.ID); err != nil {
		return errors.Wrap(err, "deleting sessions")
	}
	return svc.repo.DeleteUser(ctx, usr.ID)
}

func (svc *service) AddTeacher(ctx context.Context, actor User, ns NewStaff) (User, error) {
	if !actor.IsAdmin() {
		return User{}, core.ErrPermissionDenied
	}
	return svc.CreateStaff(ctx, ns, RoleTeacher)
}

// CreateStaff creates a teacher or an admin without permission checks (admin CLI).
func (svc *service) CreateStaff(ctx context.Context, ns NewStaff, role string) (User, error) {
	if role != RoleTeacher && role != RoleAdmin {
		return User{}, errors.Errorf("invalid staff role %q", role)
	}
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return User{}, err
	}
	if err := svc.emailTaken(ctx, ns.Email, StaffRoles...); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        core.NewID(),
		Name:      ns.Name,
		Email:     ns.Email,
		Role:      role,
		CreatedAt: core.Now(),
	}
	if err := usr.SetPassword(ns.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Teachers(ctx context.Context, actor User) ([]User, error) {
	if !actor.IsAdmin() {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.FilterUsers(ctx, QueryFilter{Roles: []string{RoleTeacher}})
}

// Students returns the roster of a teacher, or every student for an admin.
func (svc *service) Students(ctx context.Context, actor User) ([]User, error) {
	filter := QueryFilter{Roles: []string{RoleStudent}}
	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		filter.CreatedBy = actor.ID
	default:
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.FilterUsers(ctx, filter)
}

// ResetPassword sets a new password on the staff account (or else the student account)
// with the given email and signs it out everywhere.
func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	if err := svc.validate.Struct(rp); err != nil {
		return err
	}

	usr, err := svc.repo.GetUserByEmail(ctx, rp.Email, StaffRoles...)
	if errors.Cause(err) == ErrNotFound {
		usr, err = svc.repo.GetUserByEmail(ctx, rp.Email, RoleStudent)
	}
	if err != nil {
		return err
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	return svc.repo.DeleteUserSessions(ctx, usr.ID)
}

// SeedStaff creates the given accounts unless their email is already taken by a staff member.
// It returns the number of created accounts.
func (svc *service) SeedStaff(ctx context.Context, accounts []SeedAccount) (int, error) {
	var created int
	for _, acc := range accounts {
		email := core.CleanString(acc.Email, true /* lower */)
		if err := svc.emailTaken(ctx, email, StaffRoles...); err != nil {
			if _, ok := errors.Cause(err).(*core.ValidationError); ok {
				continue
			}
			return created, err
		}

		usr := User{
			ID:        core.NewID(),
			Name:      core.CleanString(acc.Name),
			Email:     email,
			Role:      acc.Role,
			CreatedAt: core.Now(),
		}
		if err := usr.SetPassword(acc.Password); err != nil {
			return created, err
		}
		if _, err := svc.repo.CreateUser(ctx, usr); err != nil {
			return created, errors.Wrapf(err, "seeding %s", email)
		}
		created++
	}
	return created, nil
}

func generatePassword() (string, error) {
	max := big.NewInt(int64(len(generatedPwdChars)))
	pwd := make([]byte, generatedPwdLen)
	for i := range pwd {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		pwd[i] = generatedPwdChars[n.Int64()]
	}
	return string(pwd), nil
}
