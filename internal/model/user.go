package model

import (
	"time"
)

type User struct {
	ID              string     `db:"id"`
	Email           string     `db:"email"`
	PasswordHash    string     `db:"password_hash"`
	PendingEmail    *string    `db:"pending_email"`
	EmailVerifiedAt *time.Time `db:"email_verified_at"`
	LastEmailSentAt *time.Time `db:"last_email_sent_at"`
	IsAdmin         bool       `db:"is_admin"`

	// Profile fields, all optional
	FirstName   *string `db:"first_name"`
	LastName    *string `db:"last_name"`
	DateOfBirth *string `db:"date_of_birth"`
	Address     *string `db:"address"`
	City        *string `db:"city"`
	State       *string `db:"state"`
	ZipCode     *string `db:"zip_code"`
	Country     *string `db:"country"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// HasPendingEmailChange reports whether an email change is in flight.
// pending_email is set if and only if an email_change token is outstanding.
func (u *User) HasPendingEmailChange() bool {
	return u.PendingEmail != nil && *u.PendingEmail != ""
}
