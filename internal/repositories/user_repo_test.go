package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tourbook/internal/domain"
)

func TestUserFindExcludesDeactivatedAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE active = 1 ORDER BY created_at DESC LIMIT \? OFFSET \?`).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "Jonas", "jonas@example.com", "", "admin", true, time.Now(), time.Now()))

	repo := UserRepo{DB: db}
	users, err := repo.Find(context.Background(), defaultSpec(t), nil)
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserUpdatePasswordClearsResetToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	changedAt := time.Now()
	mock.ExpectExec(`password_reset_hash = NULL, password_reset_expires = NULL`).
		WithArgs("new-hash", changedAt, changedAt, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := UserRepo{DB: db}
	if err := repo.UpdatePassword(context.Background(), 5, "new-hash", changedAt); err != nil {
		t.Fatalf("update password error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserDeactivateMissingIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users SET active = 0").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := UserRepo{DB: db}
	if err := repo.Deactivate(context.Background(), 42); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
