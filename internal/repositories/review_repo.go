package repositories

import (
	"context"
	"database/sql"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

var reviewFields = map[string]string{
	"rating":    "r.rating",
	"tourId":    "r.tour_id",
	"userId":    "r.user_id",
	"createdAt": "r.created_at",
}

var reviewWritable = map[string]string{
	"review": "review",
	"rating": "rating",
}

// reviewJoinColumns embed the author and tour includes; reference
// expansion is this fixed join, not a runtime populate.
var reviewJoinColumns = []string{
	"r.id", "r.review", "r.rating", "r.tour_id", "r.user_id", "r.created_at",
	"u.id", "u.name", "u.email", "u.photo", "u.role",
	"t.name",
}

type ReviewRepo struct {
	DB *sql.DB
}

func (r ReviewRepo) Find(ctx context.Context, spec query.Spec, scope map[string]any) ([]models.Review, error) {
	// Scope keys arrive as plain column names; qualify them for the join.
	qualified := make(map[string]any, len(scope))
	for col, v := range scope {
		qualified["r."+col] = v
	}
	sqlStr, args, err := listQuery(
		"reviews r JOIN users u ON u.id = r.user_id JOIN tours t ON t.id = r.tour_id",
		reviewJoinColumns, spec, reviewFields, "", nil, qualified)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.FromStorage(err, "review")
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		rv, err := scanReviewJoin(rows)
		if err != nil {
			return nil, domain.FromStorage(err, "review")
		}
		reviews = append(reviews, rv)
	}
	return reviews, domain.FromStorage(rows.Err(), "review")
}

func (r ReviewRepo) FindByID(ctx context.Context, id int64) (models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at,
		       u.id, u.name, u.email, u.photo, u.role, t.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN tours t ON t.id = r.tour_id
		WHERE r.id = ?`, id)
	rv, err := scanReviewJoin(row)
	if err != nil {
		return models.Review{}, domain.FromStorage(err, "review")
	}
	return rv, nil
}

// Create inserts the review and recomputes the tour's rating figures in
// one transaction. A second review by the same user on the same tour
// violates a unique index and surfaces as Duplicate.
func (r ReviewRepo) Create(ctx context.Context, rv *models.Review) error {
	rv.CreatedAt = time.Now()
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.FromStorage(err, "review")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (review, rating, tour_id, user_id, created_at) VALUES (?, ?, ?, ?, ?)",
		rv.Review, rv.Rating, rv.TourID, rv.UserID, rv.CreatedAt)
	if err != nil {
		return domain.FromStorage(err, "review")
	}
	rv.ID, _ = res.LastInsertId()

	if err := recalcTourRatings(ctx, tx, rv.TourID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.FromStorage(err, "review")
	}
	return nil
}

func (r ReviewRepo) Update(ctx context.Context, id int64, patch map[string]any) (models.Review, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return models.Review{}, err
	}
	sets, args := patchAssignments(patch, reviewWritable)
	if sets == "" {
		return current, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Review{}, domain.FromStorage(err, "review")
	}
	defer tx.Rollback()

	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE reviews SET "+sets+" WHERE id = ?", args...); err != nil {
		return models.Review{}, domain.FromStorage(err, "review")
	}
	if err := recalcTourRatings(ctx, tx, current.TourID); err != nil {
		return models.Review{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Review{}, domain.FromStorage(err, "review")
	}
	return r.FindByID(ctx, id)
}

func (r ReviewRepo) Delete(ctx context.Context, id int64) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.FromStorage(err, "review")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return domain.FromStorage(err, "review")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("review")
	}
	if err := recalcTourRatings(ctx, tx, current.TourID); err != nil {
		return err
	}
	return domain.FromStorage(tx.Commit(), "review")
}

// recalcTourRatings derives ratings_quantity/ratings_average from the
// review rows. 4.5 is the catalog default when no reviews remain.
func recalcTourRatings(ctx context.Context, tx *sql.Tx, tourID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tours SET
			ratings_quantity = (SELECT COUNT(*) FROM reviews WHERE tour_id = ?),
			ratings_average  = (SELECT COALESCE(ROUND(AVG(rating), 1), 4.5) FROM reviews WHERE tour_id = ?)
		WHERE id = ?`, tourID, tourID, tourID)
	return domain.FromStorage(err, "tour")
}

func scanReviewJoin(row rowScanner) (models.Review, error) {
	var rv models.Review
	var author models.PublicUser
	err := row.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.CreatedAt,
		&author.ID, &author.Name, &author.Email, &author.Photo, &author.Role,
		&rv.TourName)
	if err != nil {
		return models.Review{}, err
	}
	rv.Author = &author
	return rv, nil
}
