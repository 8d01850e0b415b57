package model

import (
	"time"
)

// Face is a flashcard for the faces recognition game: a familiar
// person's photo together with their name and relationship.
type Face struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	PersonName   string    `db:"person_name"`
	Relationship string    `db:"relationship"`
	Notes        *string   `db:"notes"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	// Computed field (not in database)
	PhotoURL string `db:"-"`
}
