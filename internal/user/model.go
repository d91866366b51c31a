package user

import "time"

// User represents a user in the system
type User struct {
	ID             int64     `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	PasswordDigest string    `json:"-" db:"password_digest"`
	IsSuperAdmin   bool      `json:"is_super_admin" db:"is_super_admin"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// Joined fields (admin listing)
	CirclesCount       int `json:"circles_count" db:"circles_count"`
	ContributionsCount int `json:"contributions_count" db:"contributions_count"`
}
