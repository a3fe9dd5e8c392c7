package models

import "time"

// UserInfo is an account known to the identity endpoints.
type UserInfo struct {
	ID          string    `json:"id"`
	AuthID      string    `json:"authId"`
	DisplayName string    `json:"displayName"`
	Salt        string    `json:"-"` // Hex encoded salt 's'
	Verifier    string    `json:"-"` // Hex encoded verifier 'v'
	CreatedAt   time.Time `json:"createdAt"`
}
