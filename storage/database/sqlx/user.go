package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core/user"
)

type userRow struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		IsActive:     row.IsActive,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...user.User) error {
	ids := make(pq.Int64Array, 0, len(excluded))
	for _, usr := range excluded {
		ids = append(ids, int64(usr.ID))
	}

	if username != "" {
		var exists bool
		query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE username = $1 AND NOT (id = ANY($2)))`
		if err := repo.db.GetContext(ctx, &exists, query, username, ids); err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if exists {
			return user.ErrUsernameExists
		}
	}
	if email != "" {
		var exists bool
		query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND NOT (id = ANY($2)))`
		if err := repo.db.GetContext(ctx, &exists, query, email, ids); err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if exists {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
	INSERT INTO "user" (name, username, email, is_active, roles, password_hash, created_at, updated_at)
	VALUES (:name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at)
	RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, repo.toRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&usr.ID); err != nil {
			return user.User{}, errors.Wrap(err, "inserting user")
		}
	}
	return usr, rows.Err()
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var row userRow
	query := `SELECT * FROM "user" WHERE username = $1 OR email = $1`
	if err := repo.db.GetContext(ctx, &row, query, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	// users with Name, Username or Email matching the search keyword
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR username ILIKE $"+n+" OR email ILIKE $"+n+")")
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		roleConds := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			args = append(args, role+"%")
			roleConds = append(roleConds,
				`id IN (SELECT id FROM "user", UNNEST(roles) user_role WHERE user_role ILIKE $`+itoa(len(args))+")")
		}
		where = append(where, "("+strings.Join(roleConds, " OR ")+")")
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, "is_active = $"+itoa(len(args)))
	}

	query := `SELECT * FROM "user"`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}
	usr.CreatedAt = orig.CreatedAt
	usr.LastLogin = orig.LastLogin
	usr.IsActive = orig.IsActive
	if isActive != nil {
		usr.IsActive = *isActive
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}

	query := `
	UPDATE "user"
	SET name = :name, username = :username, email = :email, is_active = :is_active,
	    roles = :roles, password_hash = :password_hash, updated_at = :updated_at
	WHERE id = :id`

	if _, err := sqlx.NamedExecContext(ctx, repo.db, query, repo.toRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	usr.LastLogin = time.Now().UTC()
	query := `UPDATE "user" SET last_login = $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, usr.LastLogin, usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...int) error {
	pqIDs := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		pqIDs = append(pqIDs, int64(id))
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pqIDs); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
