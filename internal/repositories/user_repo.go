package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

var userFields = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

var userColumns = []string{
	"id", "name", "email", "photo", "role", "active", "created_at", "updated_at",
}

// Admin-facing updates; credentials never pass through the generic patch
// path.
var userWritable = map[string]string{
	"name":  "name",
	"email": "email",
	"photo": "photo",
	"role":  "role",
}

type UserRepo struct {
	DB *sql.DB
}

func (r UserRepo) Find(ctx context.Context, spec query.Spec, scope map[string]any) ([]models.User, error) {
	// Deactivated accounts stay invisible everywhere.
	sqlStr, args, err := listQuery("users", userColumns, spec, userFields, "active = 1", nil, scope)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.FromStorage(err, "user")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role,
			&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, domain.FromStorage(err, "user")
		}
		users = append(users, u)
	}
	return users, domain.FromStorage(rows.Err(), "user")
}

func (r UserRepo) FindByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+strings.Join(userColumns, ", ")+" FROM users WHERE id = ? AND active = 1", id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, domain.FromStorage(err, "user")
	}
	return u, nil
}

func (r UserRepo) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := time.Now()
	u.Active = true
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (name, email, photo, role, password_hash, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		u.Name, u.Email, u.Photo, u.Role, u.PasswordHash, now, now)
	if err != nil {
		return domain.FromStorage(err, "user")
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

func (r UserRepo) Update(ctx context.Context, id int64, patch map[string]any) (models.User, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.User{}, err
	}
	sets, args := patchAssignments(patch, userWritable)
	if sets == "" {
		return r.FindByID(ctx, id)
	}
	args = append(args, time.Now(), id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+sets+", updated_at = ? WHERE id = ?", args...); err != nil {
		return models.User{}, domain.FromStorage(err, "user")
	}
	return r.FindByID(ctx, id)
}

func (r UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return domain.FromStorage(err, "user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("user")
	}
	return nil
}

// Deactivate is the "delete me" soft delete.
func (r UserRepo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET active = 0, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return domain.FromStorage(err, "user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("user")
	}
	return nil
}

const authColumns = `id, name, email, photo, role, password_hash, active,
	password_changed_at, COALESCE(password_reset_hash, ''), password_reset_expires,
	created_at, updated_at`

func (r UserRepo) scanAuth(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role,
		&u.PasswordHash, &u.Active,
		&u.PasswordChangedAt, &u.PasswordResetHash, &u.PasswordResetExpires,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, domain.FromStorage(err, "user")
	}
	return u, nil
}

// FindAuthByEmail loads credential fields for login and reset flows.
func (r UserRepo) FindAuthByEmail(ctx context.Context, email string) (models.User, error) {
	return r.scanAuth(r.DB.QueryRowContext(ctx,
		"SELECT "+authColumns+" FROM users WHERE email = ? AND active = 1", email))
}

// FindAuthByID backs the per-request identity resolution.
func (r UserRepo) FindAuthByID(ctx context.Context, id int64) (models.User, error) {
	return r.scanAuth(r.DB.QueryRowContext(ctx,
		"SELECT "+authColumns+" FROM users WHERE id = ? AND active = 1", id))
}

// FindByResetHash resolves a non-expired password-reset token hash.
func (r UserRepo) FindByResetHash(ctx context.Context, hash string, now time.Time) (models.User, error) {
	return r.scanAuth(r.DB.QueryRowContext(ctx,
		"SELECT "+authColumns+" FROM users WHERE password_reset_hash = ? AND password_reset_expires > ? AND active = 1",
		hash, now))
}

// UpdatePassword stores a new hash and stamps the change moment, which
// invalidates every token issued before it.
func (r UserRepo) UpdatePassword(ctx context.Context, id int64, hash string, changedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, password_changed_at = ?,
		    password_reset_hash = NULL, password_reset_expires = NULL,
		    updated_at = ?
		WHERE id = ?`,
		hash, changedAt, changedAt, id)
	return domain.FromStorage(err, "user")
}

// SetResetToken stores only the token hash plus its expiry.
func (r UserRepo) SetResetToken(ctx context.Context, id int64, hash string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_hash = ?, password_reset_expires = ? WHERE id = ?",
		hash, expires, id)
	return domain.FromStorage(err, "user")
}

// ClearResetToken rolls back an issued reset token, used when the reset
// email cannot be delivered.
func (r UserRepo) ClearResetToken(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_hash = NULL, password_reset_expires = NULL WHERE id = ?", id)
	return domain.FromStorage(err, "user")
}

// SetPhoto records the processed profile image filename.
func (r UserRepo) SetPhoto(ctx context.Context, id int64, filename string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET photo = ?, updated_at = ? WHERE id = ?", filename, time.Now(), id)
	return domain.FromStorage(err, "user")
}
