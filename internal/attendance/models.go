package attendance

import "time"

// RoutePoint is one GPS sample in a session's route. Points are appended
// in the order they arrive and never mutated or removed.
type RoutePoint struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	IsMock         bool      `json:"is_mock"`
	IsBaseLocation bool      `json:"is_base_location"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Session is one check-in-to-check-out attendance period. A session is
// open while CheckOutTime is nil; once set, route and distance are frozen.
type Session struct {
	ID               string       `json:"id"`
	PartnerID        string       `json:"partner_id"`
	LocationID       string       `json:"location_id"`
	CheckInTime      time.Time    `json:"check_in_time"`
	CheckOutTime     *time.Time   `json:"check_out_time,omitempty"`
	AutoCheckout     bool         `json:"auto_checkout"`
	Route            []RoutePoint `json:"route"`
	DistanceCoveredM float64      `json:"distance_covered_m"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// TrackUpdate is the payload broadcast to live watchers after each
// accepted track sample.
type TrackUpdate struct {
	SessionID        string     `json:"session_id"`
	Point            RoutePoint `json:"point"`
	DistanceCoveredM float64    `json:"distance_covered_m"`
}
