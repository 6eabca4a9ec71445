package auth

import "time"

// User represents a registered account. Records are created on successful
// registration and never mutated by this service.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	AvatarPath   string
	PhoneNumber  string
	CreatedAt    time.Time
}
