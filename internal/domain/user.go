package domain

// User is the cached convenience copy of the backend-issued identity.
// The backend is the source of truth; the bot only stores it so reloads can
// re-attach without logging in again.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
