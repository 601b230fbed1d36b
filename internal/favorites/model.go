package favorites

import "time"

// Favorite is the only entity with a true delete in normal flow: created on
// save, removed on unsave.
type Favorite struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	TenantID  string    `bson:"tenant_id" json:"tenantId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type ToggleRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
}

// ToggleResult reports the membership state after the toggle settled.
type ToggleResult struct {
	TenantID  string `json:"tenantId"`
	Favorited bool   `json:"favorited"`
}
