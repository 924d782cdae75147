package types

import "time"

// Headquarter is a physical site where the foundation runs its programs.
type Headquarter struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	City       string    `db:"city"`
	Address    *string   `db:"address"`
	DirectorID *string   `db:"director_id"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
