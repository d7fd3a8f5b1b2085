package report

import "time"

// Entry is one attendance session joined with its partner and location.
// The sub-objects are nil when the referenced row no longer resolves.
type Entry struct {
	ID               string     `json:"id"`
	CheckInTime      time.Time  `json:"check_in_time"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	AutoCheckout     bool       `json:"auto_checkout"`
	DistanceCoveredM float64    `json:"distance_covered_m"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Partner          *Partner   `json:"partner"`
	Location         *Location  `json:"location"`
}

type Partner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
