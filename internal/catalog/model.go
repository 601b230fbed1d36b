package catalog

import "time"

// Package is a bookable service offered by a tenant. PriceCents is stored in
// minor units; the pricing resolver converts to whole units at its boundary.
type Package struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	TenantID        string    `bson:"tenant_id" json:"tenantId"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description" json:"description"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	PriceCents      int       `bson:"priceCents" json:"priceCents"`
	IsActive        bool      `bson:"isActive" json:"isActive"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Review struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	TenantID  string    `bson:"tenant_id" json:"tenantId"`
	ClientID  string    `bson:"client_id" json:"clientId"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type UpsertPackageRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=120"`
	Description     string `json:"description" validate:"max=2000"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,gte=15,lte=480"`
	PriceCents      int    `json:"priceCents" validate:"required,gte=0"`
	IsActive        *bool  `json:"isActive"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}
