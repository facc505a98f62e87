package pgrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/user"
)

const userColumns = "id, name, email, role, created_by, password_hash, created_at"

// uniqueViolation is the postgres error code of a unique constraint violation.
const uniqueViolation = "23505"

type (
	userRepository struct {
		db core.DB
	}

	userRow struct {
		ID           string      `db:"id"`
		Name         string      `db:"name"`
		Email        string      `db:"email"`
		Role         string      `db:"role"`
		CreatedBy    null.String `db:"created_by"`
		PasswordHash []byte      `db:"password_hash"`
		CreatedAt    time.Time   `db:"created_at"`
	}

	sessionRow struct {
		ID        string      `db:"id"`
		UserID    string      `db:"user_id"`
		Role      string      `db:"role"`
		CreatedBy null.String `db:"created_by"`
		Name      string      `db:"name"`
		Email     string      `db:"email"`
		CreatedAt time.Time   `db:"created_at"`
		ExpiresAt time.Time   `db:"expires_at"`
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		CreatedBy:    null.NewString(usr.CreatedBy, usr.CreatedBy != ""),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		CreatedBy:    r.CreatedBy.String,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :role, :created_by, :password_hash, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr)); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, core.NewFieldError("email", user.ErrEmailExists)
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, email = :email,
		password_hash = COALESCE(:password_hash, password_hash) WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) getOne(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, roles ...string) (user.User, error) {
	if len(roles) == 0 {
		roles = user.AllRoles
	}
	return repo.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND role = ANY($2) ORDER BY created_at LIMIT 1`,
		email, pq.Array(roles),
	)
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if len(filter.Roles) > 0 {
		args = append(args, pq.Array(filter.Roles))
		conds = append(conds, "role = ANY(?)")
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conds = append(conds, "created_by = ?")
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)")
	}

	q := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + core.DBOrdering{Field: "created_at", Ascending: true}.String()

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) CreateSession(ctx context.Context, sess user.Session) error {
	row := sessionRow{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Role:      sess.Role,
		CreatedBy: null.NewString(sess.CreatedBy, sess.CreatedBy != ""),
		Name:      sess.Name,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt.UTC(),
		ExpiresAt: sess.ExpiresAt.UTC(),
	}
	q := `INSERT INTO sessions (id, user_id, role, created_by, name, email, created_at, expires_at)
		VALUES (:id, :user_id, :role, :created_by, :name, :email, :created_at, :expires_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return errors.Wrap(err, "inserting session")
	}
	return nil
}

func (repo *userRepository) GetSession(ctx context.Context, id string) (user.Session, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, user_id, role, created_by, name, email, created_at, expires_at FROM sessions WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Session{}, user.ErrSessionNotFound
		}
		return user.Session{}, errors.Wrap(err, "selecting session")
	}
	return user.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		Role:      row.Role,
		CreatedBy: row.CreatedBy.String,
		Name:      row.Name,
		Email:     row.Email,
		CreatedAt: row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}

func (repo *userRepository) DeleteSessions(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting sessions")
	}
	return nil
}

func (repo *userRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "deleting sessions")
	}
	return nil
}
