package models

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	TourID    int64     `json:"tourId" binding:"required"`
	UserID    int64     `json:"userId" binding:"required"`
	Price     int64     `json:"price" binding:"required,gt=0"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`

	// Display include, resolved by the accessor.
	TourName string `json:"tourName,omitempty"`
}
