package models

// User is a registered chat account.
type User struct {
	ID           int64
	Name         string
	PasswordHash string
}

// MaxUserNameLength matches the width of the users.name column.
const MaxUserNameLength = 30
