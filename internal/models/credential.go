package models

import "time"

// SessionCredential is the credential material captured from a
// web-session provider's own web app. RefreshToken is the long-lived
// secret; AccessToken is the short-lived one minted from it and may be
// empty until the first refresh.
type SessionCredential struct {
	Provider     Provider  `json:"provider" db:"provider"`
	RefreshToken string    `json:"refresh_token" db:"refresh_token"`
	AccessToken  string    `json:"access_token" db:"access_token"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AuthStatus is what the UI sees about a web-session connection.
type AuthStatus struct {
	Provider  Provider   `json:"provider"`
	Connected bool       `json:"connected"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
