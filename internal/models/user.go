package models

import "time"

// User represents a user account in the system.
type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Never expose this to the client
	IsVerified          bool       `json:"isVerified"`
	VerificationToken   *string    `json:"-"` // Present only while unverified
	VerificationExpires *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
}
