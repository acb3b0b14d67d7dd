package repositories

import (
	"context"
	"database/sql"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/query"
)

var bookingFields = map[string]string{
	"tourId":    "b.tour_id",
	"userId":    "b.user_id",
	"price":     "b.price",
	"paid":      "b.paid",
	"createdAt": "b.created_at",
}

var bookingWritable = map[string]string{
	"price": "price",
	"paid":  "paid",
}

var bookingJoinColumns = []string{
	"b.id", "b.tour_id", "b.user_id", "b.price", "b.paid", "b.created_at", "t.name",
}

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) Find(ctx context.Context, spec query.Spec, scope map[string]any) ([]models.Booking, error) {
	qualified := make(map[string]any, len(scope))
	for col, v := range scope {
		qualified["b."+col] = v
	}
	sqlStr, args, err := listQuery(
		"bookings b JOIN tours t ON t.id = b.tour_id",
		bookingJoinColumns, spec, bookingFields, "", nil, qualified)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.FromStorage(err, "booking")
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid,
			&b.CreatedAt, &b.TourName); err != nil {
			return nil, domain.FromStorage(err, "booking")
		}
		bookings = append(bookings, b)
	}
	return bookings, domain.FromStorage(rows.Err(), "booking")
}

func (r BookingRepo) FindByID(ctx context.Context, id int64) (models.Booking, error) {
	var b models.Booking
	err := r.DB.QueryRowContext(ctx, `
		SELECT b.id, b.tour_id, b.user_id, b.price, b.paid, b.created_at, t.name
		FROM bookings b JOIN tours t ON t.id = b.tour_id
		WHERE b.id = ?`, id).
		Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid, &b.CreatedAt, &b.TourName)
	if err != nil {
		return models.Booking{}, domain.FromStorage(err, "booking")
	}
	return b, nil
}

func (r BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	b.CreatedAt = time.Now()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (tour_id, user_id, price, paid, created_at) VALUES (?, ?, ?, ?, ?)",
		b.TourID, b.UserID, b.Price, b.Paid, b.CreatedAt)
	if err != nil {
		return domain.FromStorage(err, "booking")
	}
	b.ID, _ = res.LastInsertId()
	return nil
}

func (r BookingRepo) Update(ctx context.Context, id int64, patch map[string]any) (models.Booking, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.Booking{}, err
	}
	sets, args := patchAssignments(patch, bookingWritable)
	if sets == "" {
		return r.FindByID(ctx, id)
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx, "UPDATE bookings SET "+sets+" WHERE id = ?", args...); err != nil {
		return models.Booking{}, domain.FromStorage(err, "booking")
	}
	return r.FindByID(ctx, id)
}

func (r BookingRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return domain.FromStorage(err, "booking")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("booking")
	}
	return nil
}
