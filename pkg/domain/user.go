package domain

// User is the remote account profile, stored as a singleton row and
// refreshed on every full sync.
type User struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	LastLogin   int64  `json:"last_login"`
}
