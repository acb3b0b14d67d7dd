package models

import "time"

// Review belongs to exactly one tour and one user. The Author/TourName
// fields are includes resolved by the storage accessor's join when
// loading.
type Review struct {
	ID        int64     `json:"id"`
	Review    string    `json:"review" binding:"required"`
	Rating    float64   `json:"rating" binding:"required,gte=1,lte=5"`
	TourID    int64     `json:"tourId"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	Author   *PublicUser `json:"user,omitempty"`
	TourName string      `json:"tourName,omitempty"`
}
