// Package models holds the persistence-level entities shared by repositories
// and services.
package models

import "time"

// Account is a registered user identity. Name and Email are globally unique;
// Name changes only through the rename flow.
type Account struct {
	ID        string
	Name      string
	Email     string
	Locked    bool
	Locale    string
	Theme     string
	CreatedAt time.Time
}

// NameChange is one append-only entry of an account's rename history.
type NameChange struct {
	AccountID string
	OldName   string
	NewName   string
	Date      time.Time
}
