package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt output (salt and cost embedded — see
// internal/auth). The `json:"-"` tag keeps it out of every API response;
// forgetting this on even one endpoint would leak password hashes.
//
// The follow graph is NOT stored on the struct. Follows are a directed
// many-to-many relation over users, kept as an explicit edge table and
// queried on demand — see repository.EdgeRepository.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	JoinedAt     time.Time `json:"joinedAt"`
}
