package partner

import "time"

type Partner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LoginID      string    `json:"login_id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	State        string    `json:"state"`
	City         string    `json:"city"`
	PasswordHash string    `json:"-"`
	IsDeleted    bool      `json:"is_deleted"`
	IsActive     bool      `json:"is_active"`
	LocationID   string    `json:"location_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Patch carries the fields an update may change. Booleans are pointers
// so "leave as is" and "set to false" stay distinguishable.
type Patch struct {
	Name       string `json:"name"`
	LoginID    string `json:"login_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	State      string `json:"state"`
	City       string `json:"city"`
	Password   string `json:"password"`
	LocationID string `json:"location_id"`
	IsActive   *bool  `json:"is_active"`
	IsDeleted  *bool  `json:"is_deleted"`
}
