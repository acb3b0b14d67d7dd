package models

import (
	"regexp"
	"strings"
	"time"
)

// Tour is the core catalog entity.
type Tour struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name" binding:"required,min=10,max=40"`
	Slug           string    `json:"slug"`
	Duration       int       `json:"duration" binding:"required,gt=0"`
	MaxGroupSize   int       `json:"maxGroupSize" binding:"required,gt=0"`
	Difficulty     string    `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	Price          int64     `json:"price" binding:"required,gt=0"`
	PriceDiscount  int64     `json:"priceDiscount" binding:"ltefield=Price"`
	Summary        string    `json:"summary" binding:"required"`
	Description    string    `json:"description"`
	ImageCover     string    `json:"imageCover"`
	Images         []string  `json:"images"`
	RatingsAverage float64   `json:"ratingsAverage"`
	RatingsQty     int       `json:"ratingsQuantity"`
	StartDates     []string  `json:"startDates"`
	Secret         bool      `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a tour name. The creating and updating
// code paths call it explicitly; nothing derives the slug on save.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TourStats is one row of the per-difficulty aggregate.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   int64   `json:"minPrice"`
	MaxPrice   int64   `json:"maxPrice"`
}

// MonthlyPlanEntry is one row of the per-month start-date aggregate.
type MonthlyPlanEntry struct {
	Month    int      `json:"month"`
	NumTours int      `json:"numTourStarts"`
	Tours    []string `json:"tours"`
}
