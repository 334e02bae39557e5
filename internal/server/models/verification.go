package models

import "time"

// VerificationPurpose scopes a verification code to a single action.
type VerificationPurpose string

const (
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// VerificationCode is a short-lived numeric code proving control of an
// account. Codes are not unique across accounts; validity is checked per
// (account, purpose). Expiry is derived from CreatedAt at read time.
type VerificationCode struct {
	ID        int64
	AccountID string
	Purpose   VerificationPurpose
	Code      string
	CreatedAt time.Time
}
