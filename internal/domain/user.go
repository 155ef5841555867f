package domain

import "time" // Timestamps

// User Model
type User struct {
	ID        string    `gorm:"primaryKey;size:36"`            // Opaque identifier
	Name      string    `gorm:"size:128;not null"`             // Display name
	Email     string    `gorm:"size:255;uniqueIndex;not null"` // Unique login key
	Password  string    `gorm:"size:255;not null" json:"-"`    // Bcrypt hash, never serialised
	CreatedAt time.Time // Registration time
}

// PublicUser is the part of a user returned to clients
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips credential material from the user
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
