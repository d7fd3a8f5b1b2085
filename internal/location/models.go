package location

import (
	"time"

	"backend-fieldtrack/internal/shared/geo"
)

type Location struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	RadiusM   float64          `json:"radius_m"`
	Boundary  []geo.Coordinate `json:"boundary"`
	IsDeleted bool             `json:"is_deleted"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PartnerCount is one row of the per-location staffing overview.
type PartnerCount struct {
	LocationID   string           `json:"location_id"`
	Name         string           `json:"name"`
	Latitude     float64          `json:"latitude"`
	Longitude    float64          `json:"longitude"`
	PartnerCount int              `json:"partner_count"`
	Partners     []PartnerSummary `json:"partners"`
}

type PartnerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
