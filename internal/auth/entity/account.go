package entity

import "time"

type Account struct {
	UID            string
	PhoneFormatted string
	PhoneRaw       string
	CreatedAt      time.Time
}

// NewAccount is the input of account creation. DirectoryID keys the user directory row.
type NewAccount struct {
	UID            string
	DirectoryID    int64
	PhoneFormatted string
	PhoneRaw       string
	CreatedAt      time.Time
}
