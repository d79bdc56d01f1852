package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/user"
)

const userColumns = `id, username, email, role, is_active, mentor_id, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := `SELECT username, email FROM users WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	query += ` LIMIT 1`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var match struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err = getExec(repo.exec, exec).GetContext(ctx, &match, query, inArgs...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking user uniqueness")
	}
	if match.Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	const query = `
INSERT INTO users (username, email, role, is_active, mentor_id, password_hash, created_at, updated_at, last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &usr.ID, query,
		usr.Username, usr.Email, usr.Role, usr.IsActive, usr.MentorID,
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = `id = $1`, filter.ID
	case filter.Username != "":
		where, arg = `username = $1`, filter.Username
	case filter.Email != "":
		where, arg = `email = $1`, filter.Email
	case filter.UsernameOrEmail != "":
		where, arg = `(username = $1 OR email = $1)`, filter.UsernameOrEmail
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	err := getExec(repo.exec, exec).GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Role != "" {
			args = append(args, filter.Role)
			where = append(where, `role = ?`)
		}
		if filter.MentorID != nil {
			args = append(args, *filter.MentorID)
			where = append(where, `mentor_id = ?`)
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			where = append(where, `is_active = ?`)
		}
	}
	for i, cond := range where {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY id`
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	users := make([]user.User, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &users, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.exec, exec)

	// merge set fields onto the stored row; mentor_id is always written
	orig, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, ex)
	if err != nil {
		return user.User{}, err
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.MentorID = usr.MentorID

	const query = `
UPDATE users
SET username = $2, email = $3, role = $4, is_active = $5, mentor_id = $6,
    password_hash = $7, updated_at = $8, last_login = $9
WHERE id = $1`
	_, err = ex.ExecContext(ctx, query,
		orig.ID, orig.Username, orig.Email, orig.Role, orig.IsActive, orig.MentorID,
		orig.PasswordHash, orig.UpdatedAt, orig.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	existing, err := repo.GetUser(ctx, user.GetFilter{Email: usr.Email}, exec...)
	switch err {
	case nil:
		usr.ID = existing.ID
		return repo.UpdateUser(ctx, usr, &usr.IsActive, exec...)
	case user.ErrNotFound:
		return repo.CreateUser(ctx, usr, exec...)
	default:
		return user.User{}, err
	}
}

func (repo userRepository) SubscribeNewsletter(ctx context.Context, email string, exec ...core.DBExecutor) error {
	const query = `INSERT INTO newsletter_subscribers (email, created_at) VALUES ($1, now()) ON CONFLICT (email) DO NOTHING`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query, email)
	return errors.Wrap(err, "subscribing email")
}

func (repo userRepository) FirstMentor(ctx context.Context, exec ...core.DBExecutor) (user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_active ORDER BY id LIMIT 1`
	var usr user.User
	if err := getExec(repo.exec, exec).GetContext(ctx, &usr, query, user.RoleMentor); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting first mentor")
	}
	return usr, nil
}
