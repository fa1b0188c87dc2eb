package models

import "time"

// Staff is a restaurant staff account.
type Staff struct {
	ID           string
	Login        string
	PasswordHash []byte
	Name         string
	Role         string
}

// RefreshToken is a persisted refresh token bound to a staff account.
type RefreshToken struct {
	StaffID   string
	Token     string
	ExpiresAt time.Time
}
