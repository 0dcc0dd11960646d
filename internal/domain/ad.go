package domain

import "time"

// Ad is a classified listing. CreatorID is fixed at creation.
type Ad struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatorID   string    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdPatch holds optional ad changes. A nil field leaves the stored value as is.
type AdPatch struct {
	Title       *string
	Description *string
	Price       *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p AdPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil
}

// Apply copies the provided fields onto ad.
func (p AdPatch) Apply(ad *Ad) {
	if p.Title != nil {
		ad.Title = *p.Title
	}
	if p.Description != nil {
		ad.Description = *p.Description
	}
	if p.Price != nil {
		ad.Price = *p.Price
	}
}
