package bookings

import "time"

// Booking captures the price resolved at creation time; later pricing config
// changes never reprice an existing booking.
type Booking struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	TenantID        string    `bson:"tenant_id" json:"tenantId"`
	ClientID        string    `bson:"client_id" json:"clientId"`
	PackageID       string    `bson:"package_id" json:"packageId"`
	PackageName     string    `bson:"packageName" json:"packageName"`
	Date            string    `bson:"date" json:"date"`
	Time            string    `bson:"time" json:"time"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Price           int       `bson:"price" json:"price"`
	Status          string    `bson:"status" json:"status"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

type CreateBookingRequest struct {
	TenantID  string `json:"tenantId" validate:"required"`
	PackageID string `json:"packageId" validate:"required"`
	Date      string `json:"date" validate:"required,date"`
	Time      string `json:"time" validate:"required,clock"`
	Notes     string `json:"notes" validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}

type ListFilter struct {
	Date   string
	Status string
}
