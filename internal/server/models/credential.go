package models

import (
	"encoding/json"
	"time"
)

// CredentialType tags a credential attached to an account. An account holds at
// most one credential per type.
type CredentialType string

const (
	CredentialPassword CredentialType = "password"
)

// Credential is a typed proof-of-identity record with an opaque JSON payload.
type Credential struct {
	AccountID string
	Type      CredentialType
	Payload   json.RawMessage
	CreatedAt time.Time
}

// PasswordCredential is the payload stored for CredentialPassword.
type PasswordCredential struct {
	HashedPassword string `json:"hashed_password"`
}

// NewPasswordCredential encodes a hashed password into a Credential for the
// given account.
func NewPasswordCredential(accountID, hashedPassword string) (*Credential, error) {
	payload, err := json.Marshal(PasswordCredential{HashedPassword: hashedPassword})
	if err != nil {
		return nil, err
	}
	return &Credential{AccountID: accountID, Type: CredentialPassword, Payload: payload}, nil
}

// Password decodes the payload as a PasswordCredential.
func (c *Credential) Password() (*PasswordCredential, error) {
	pc := &PasswordCredential{}
	if err := json.Unmarshal(c.Payload, pc); err != nil {
		return nil, err
	}
	return pc, nil
}
