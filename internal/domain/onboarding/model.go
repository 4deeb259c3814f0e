package onboarding

import "time"

// Snapshot is the last onboarding payload written for a user, kept for
// offline reuse by the client.
type Snapshot struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}
