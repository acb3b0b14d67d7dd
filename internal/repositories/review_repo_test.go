package repositories

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

func defaultSpec(t *testing.T) query.Spec {
	t.Helper()
	spec, err := query.Build(url.Values{})
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}
	return spec
}

func reviewJoinRow(id, tourID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"r.id", "r.review", "r.rating", "r.tour_id", "r.user_id", "r.created_at",
		"u.id", "u.name", "u.email", "u.photo", "u.role", "t.name",
	}).AddRow(
		id, "Loved every minute", 5.0, tourID, 2, time.Now(),
		2, "Lisa Brown", "lisa@example.com", "user-2.jpg", "user", "The Forest Hiker",
	)
}

func TestReviewCreateRecalculatesRatingsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("UPDATE tours SET").
		WithArgs(int64(9), int64(9), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review := models.Review{Review: "Loved every minute", Rating: 5, TourID: 9, UserID: 2}
	repo := ReviewRepo{DB: db}
	if err := repo.Create(context.Background(), &review); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if review.ID != 3 {
		t.Fatalf("id not set, got %d", review.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewCreateRollsBackWhenRecalcFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("UPDATE tours SET").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	review := models.Review{Review: "Loved every minute", Rating: 5, TourID: 9, UserID: 2}
	repo := ReviewRepo{DB: db}
	if err := repo.Create(context.Background(), &review); err == nil {
		t.Fatalf("expected error when rating recalc fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewDeleteRecalculatesRatings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM reviews r").
		WithArgs(int64(3)).
		WillReturnRows(reviewJoinRow(3, 9))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tours SET").
		WithArgs(int64(9), int64(9), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := ReviewRepo{DB: db}
	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewFindQualifiesScopeForJoin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM reviews r JOIN users u ON u\.id = r\.user_id JOIN tours t ON t\.id = r\.tour_id WHERE r\.tour_id = \?`).
		WithArgs(int64(9), 100, 0).
		WillReturnRows(reviewJoinRow(3, 9))

	repo := ReviewRepo{DB: db}
	reviews, err := repo.Find(context.Background(), defaultSpec(t), map[string]any{"tour_id": int64(9)})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
	if reviews[0].Author == nil || reviews[0].Author.Name != "Lisa Brown" {
		t.Fatalf("author include not resolved: %+v", reviews[0].Author)
	}
	if reviews[0].TourName != "The Forest Hiker" {
		t.Fatalf("tour include not resolved: %q", reviews[0].TourName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
