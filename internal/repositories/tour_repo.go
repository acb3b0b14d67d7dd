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

// tourFields maps query-facing names to columns; it is the identifier
// allow-list for filtering/sorting/projection on tours.
var tourFields = map[string]string{
	"name":            "name",
	"slug":            "slug",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"price":           "price",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"createdAt":       "created_at",
}

var tourColumns = []string{
	"id", "name", "slug", "duration", "max_group_size", "difficulty",
	"price", "price_discount", "summary", "description", "image_cover",
	"ratings_average", "ratings_quantity", "secret", "created_at",
}

var tourWritable = map[string]string{
	"name":          "name",
	"duration":      "duration",
	"maxGroupSize":  "max_group_size",
	"difficulty":    "difficulty",
	"price":         "price",
	"priceDiscount": "price_discount",
	"summary":       "summary",
	"description":   "description",
	"imageCover":    "image_cover",
}

type TourRepo struct {
	DB *sql.DB
}

func (r TourRepo) Find(ctx context.Context, spec query.Spec, scope map[string]any) ([]models.Tour, error) {
	// Secret tours never appear in public listings.
	sqlStr, args, err := listQuery("tours", tourColumns, spec, tourFields, "secret = 0", nil, scope)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.FromStorage(err, "tour")
	}
	defer rows.Close()

	var tours []models.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, domain.FromStorage(err, "tour")
		}
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.FromStorage(err, "tour")
	}
	if err := r.attachIncludes(ctx, tours); err != nil {
		return nil, err
	}
	return tours, nil
}

func (r TourRepo) FindByID(ctx context.Context, id int64) (models.Tour, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+strings.Join(tourColumns, ", ")+" FROM tours WHERE id = ?", id)
	t, err := scanTour(row)
	if err != nil {
		return models.Tour{}, domain.FromStorage(err, "tour")
	}
	tours := []models.Tour{t}
	if err := r.attachIncludes(ctx, tours); err != nil {
		return models.Tour{}, err
	}
	return tours[0], nil
}

// FindBySlug backs the rendered tour page.
func (r TourRepo) FindBySlug(ctx context.Context, slug string) (models.Tour, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+strings.Join(tourColumns, ", ")+" FROM tours WHERE slug = ?", slug)
	t, err := scanTour(row)
	if err != nil {
		return models.Tour{}, domain.FromStorage(err, "tour")
	}
	tours := []models.Tour{t}
	if err := r.attachIncludes(ctx, tours); err != nil {
		return models.Tour{}, err
	}
	return tours[0], nil
}

func (r TourRepo) Create(ctx context.Context, t *models.Tour) error {
	t.Slug = models.Slugify(t.Name)
	t.CreatedAt = time.Now()
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO tours
			(name, slug, duration, max_group_size, difficulty, price,
			 price_discount, summary, description, image_cover,
			 ratings_average, ratings_quantity, secret, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 4.5, 0, ?, ?)`,
		t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty, t.Price,
		t.PriceDiscount, t.Summary, t.Description, t.ImageCover,
		t.Secret, t.CreatedAt,
	)
	if err != nil {
		return domain.FromStorage(err, "tour")
	}
	t.ID, _ = res.LastInsertId()
	t.RatingsAverage = 4.5

	for _, d := range t.StartDates {
		if _, err := r.DB.ExecContext(ctx,
			"INSERT INTO tour_start_dates (tour_id, start_date) VALUES (?, ?)", t.ID, d); err != nil {
			return domain.FromStorage(err, "tour")
		}
	}
	return nil
}

func (r TourRepo) Update(ctx context.Context, id int64, patch map[string]any) (models.Tour, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return models.Tour{}, err
	}
	if name, ok := patch["name"].(string); ok {
		patch["slug"] = models.Slugify(name)
	}
	writable := tourWritable
	if _, ok := patch["slug"]; ok {
		writable = make(map[string]string, len(tourWritable)+1)
		for k, v := range tourWritable {
			writable[k] = v
		}
		writable["slug"] = "slug"
	}
	sets, args := patchAssignments(patch, writable)
	if sets == "" {
		return r.FindByID(ctx, id)
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx, "UPDATE tours SET "+sets+" WHERE id = ?", args...); err != nil {
		return models.Tour{}, domain.FromStorage(err, "tour")
	}
	return r.FindByID(ctx, id)
}

func (r TourRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", id)
	if err != nil {
		return domain.FromStorage(err, "tour")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("tour")
	}
	return nil
}

// SetImages replaces the cover and gallery after an upload batch.
func (r TourRepo) SetImages(ctx context.Context, id int64, cover string, images []string) error {
	if cover != "" {
		if _, err := r.DB.ExecContext(ctx, "UPDATE tours SET image_cover = ? WHERE id = ?", cover, id); err != nil {
			return domain.FromStorage(err, "tour")
		}
	}
	if len(images) == 0 {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM tour_images WHERE tour_id = ?", id); err != nil {
		return domain.FromStorage(err, "tour")
	}
	for _, img := range images {
		if _, err := r.DB.ExecContext(ctx,
			"INSERT INTO tour_images (tour_id, filename) VALUES (?, ?)", id, img); err != nil {
			return domain.FromStorage(err, "tour")
		}
	}
	return nil
}

// Stats aggregates rating/price figures per difficulty.
func (r TourRepo) Stats(ctx context.Context) ([]models.TourStats, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT difficulty, COUNT(*), SUM(ratings_quantity),
		       AVG(ratings_average), AVG(price), MIN(price), MAX(price)
		FROM tours
		WHERE ratings_average >= 0
		GROUP BY difficulty
		ORDER BY AVG(price)`)
	if err != nil {
		return nil, domain.FromStorage(err, "tour")
	}
	defer rows.Close()

	var out []models.TourStats
	for rows.Next() {
		var s models.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, domain.FromStorage(err, "tour")
		}
		out = append(out, s)
	}
	return out, domain.FromStorage(rows.Err(), "tour")
}

// MonthlyPlan counts tour starts per month of one year.
func (r TourRepo) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlanEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT MONTH(d.start_date), COUNT(*), GROUP_CONCAT(t.name ORDER BY t.name SEPARATOR '|')
		FROM tour_start_dates d
		JOIN tours t ON t.id = d.tour_id
		WHERE YEAR(d.start_date) = ?
		GROUP BY MONTH(d.start_date)
		ORDER BY COUNT(*) DESC`, year)
	if err != nil {
		return nil, domain.FromStorage(err, "tour")
	}
	defer rows.Close()

	var out []models.MonthlyPlanEntry
	for rows.Next() {
		var e models.MonthlyPlanEntry
		var names string
		if err := rows.Scan(&e.Month, &e.NumTours, &names); err != nil {
			return nil, domain.FromStorage(err, "tour")
		}
		e.Tours = strings.Split(names, "|")
		out = append(out, e)
	}
	return out, domain.FromStorage(rows.Err(), "tour")
}

// attachIncludes resolves the start-date and gallery includes for a page
// of tours, one query per include instead of one per tour.
func (r TourRepo) attachIncludes(ctx context.Context, tours []models.Tour) error {
	if len(tours) == 0 {
		return nil
	}
	idx := make(map[int64]*models.Tour, len(tours))
	ids := make([]string, 0, len(tours))
	args := make([]any, 0, len(tours))
	for i := range tours {
		idx[tours[i].ID] = &tours[i]
		ids = append(ids, "?")
		args = append(args, tours[i].ID)
	}
	in := strings.Join(ids, ",")

	rows, err := r.DB.QueryContext(ctx,
		"SELECT tour_id, start_date FROM tour_start_dates WHERE tour_id IN ("+in+") ORDER BY start_date",
		args...)
	if err != nil {
		return domain.FromStorage(err, "tour")
	}
	defer rows.Close()
	for rows.Next() {
		var tourID int64
		var date string
		if err := rows.Scan(&tourID, &date); err != nil {
			return domain.FromStorage(err, "tour")
		}
		if t, ok := idx[tourID]; ok {
			t.StartDates = append(t.StartDates, date)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.FromStorage(err, "tour")
	}

	imgRows, err := r.DB.QueryContext(ctx,
		"SELECT tour_id, filename FROM tour_images WHERE tour_id IN ("+in+") ORDER BY id",
		args...)
	if err != nil {
		return domain.FromStorage(err, "tour")
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var tourID int64
		var filename string
		if err := imgRows.Scan(&tourID, &filename); err != nil {
			return domain.FromStorage(err, "tour")
		}
		if t, ok := idx[tourID]; ok {
			t.Images = append(t.Images, filename)
		}
	}
	return domain.FromStorage(imgRows.Err(), "tour")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTour(row rowScanner) (models.Tour, error) {
	var t models.Tour
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.Price, &t.PriceDiscount, &t.Summary, &t.Description, &t.ImageCover,
		&t.RatingsAverage, &t.RatingsQty, &t.Secret, &t.CreatedAt,
	)
	return t, err
}
