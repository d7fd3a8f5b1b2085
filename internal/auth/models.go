package auth

import "time"

type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Account is the partner view returned on a successful login.
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LoginID    string    `json:"login_id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	State      string    `json:"state"`
	City       string    `json:"city"`
	LocationID string    `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
