package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"user-service/internal/domain"
	"user-service/internal/repository"
)

// Uniqueness is enforced here as well as in the service: the service check is
// a pre-check and cannot close the race between two concurrent registrations.
const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL COLLATE NOCASE UNIQUE,
	first_name TEXT NOT NULL,
	last_first_name TEXT NOT NULL,
	last_second_name TEXT,
	mail TEXT NOT NULL COLLATE NOCASE UNIQUE,
	phone TEXT NOT NULL,
	ci TEXT NOT NULL COLLATE NOCASE UNIQUE,
	role TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	password_version INTEGER NOT NULL DEFAULT 1,
	has_changed_password INTEGER NOT NULL DEFAULT 0,
	last_password_changed_at DATETIME,
	is_deleted INTEGER NOT NULL DEFAULT 0,
	created_by INTEGER NOT NULL DEFAULT 0,
	updated_by INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const userColumns = `id, username, first_name, last_first_name, last_second_name, mail, phone, ci, role,
	password_hash, password_version, has_changed_password, last_password_changed_at,
	is_deleted, created_by, updated_by, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, first_name, last_first_name, last_second_name, mail, phone, ci, role,
	password_hash, password_version, has_changed_password, last_password_changed_at,
	is_deleted, created_by, updated_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.FirstName,
		user.LastFirstName,
		user.LastSecondName,
		user.Mail,
		user.Phone,
		user.CI,
		string(user.Role),
		user.PasswordHash,
		user.PasswordVersion,
		user.HasChangedPassword,
		user.LastPasswordChangedAt,
		user.IsDeleted,
		user.CreatedBy,
		user.UpdatedBy,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, mapConstraintError("insert user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Update writes every mutable column in one statement.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET
	first_name = ?,
	last_first_name = ?,
	last_second_name = ?,
	mail = ?,
	phone = ?,
	ci = ?,
	role = ?,
	password_hash = ?,
	password_version = ?,
	has_changed_password = ?,
	last_password_changed_at = ?,
	is_deleted = ?,
	updated_by = ?,
	updated_at = ?
WHERE id = ?`,
		user.FirstName,
		user.LastFirstName,
		user.LastSecondName,
		user.Mail,
		user.Phone,
		user.CI,
		string(user.Role),
		user.PasswordHash,
		user.PasswordVersion,
		user.HasChangedPassword,
		user.LastPasswordChangedAt,
		user.IsDeleted,
		user.UpdatedBy,
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		return mapConstraintError("update user", err)
	}
	return expectOneRow(res)
}

// Delete persists the soft-delete flag set by the caller.
func (r *UserRepository) Delete(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET is_deleted = ?, updated_by = ?, updated_at = ?
WHERE id = ?`,
		user.IsDeleted,
		user.UpdatedBy,
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func mapConstraintError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return domain.Wrap(domain.ErrUsernameTaken, err)
	case strings.Contains(msg, "users.mail"):
		return domain.Wrap(domain.ErrMailExists, err)
	case strings.Contains(msg, "users.ci"):
		return domain.Wrap(domain.ErrCIExists, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastFirstName,
		&user.LastSecondName,
		&user.Mail,
		&user.Phone,
		&user.CI,
		&role,
		&user.PasswordHash,
		&user.PasswordVersion,
		&user.HasChangedPassword,
		&user.LastPasswordChangedAt,
		&user.IsDeleted,
		&user.CreatedBy,
		&user.UpdatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}
