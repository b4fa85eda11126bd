package twitch

import (
	"time"
)

// User represents a Helix user.
type User struct {
	ID              string    `json:"id"                         validate:"required" yaml:"id"`
	Login           string    `json:"login"                      validate:"required" yaml:"login"`
	DisplayName     string    `json:"display_name"                                   yaml:"display_name"`
	Type            string    `json:"type"                                           yaml:"type"`
	BroadcasterType string    `json:"broadcaster_type"                               yaml:"broadcaster_type"`
	Description     string    `json:"description"                                    yaml:"description"`
	ProfileImageURL string    `json:"profile_image_url"                              yaml:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"                              yaml:"offline_image_url"`
	ViewCount       int       `json:"view_count"                                     yaml:"view_count"`
	Email           string    `json:"email,omitempty"                                yaml:"email,omitempty"`
	CreatedAt       time.Time `json:"created_at"                                     yaml:"created_at"`
}

// UserResponse is the Helix envelope for users requests.
type UserResponse struct {
	Data []User `json:"data" validate:"dive" yaml:"data"`
}

// TokenInfo describes an access token as reported by the validate endpoint.
type TokenInfo struct {
	ClientID   string    `json:"client_id"  yaml:"client_id"`
	Login      string    `json:"login"      yaml:"login"`
	UserID     string    `json:"user_id"    yaml:"user_id"`
	Scopes     []string  `json:"scopes"     yaml:"scopes"`
	ExpiresIn  int64     `json:"expires_in" yaml:"expires_in"`
	ObtainedAt time.Time `json:"-"          yaml:"obtained_at"`
}

// ExpiryDate returns when the token expires, or the zero time if unknown.
func (i *TokenInfo) ExpiryDate() time.Time {
	if i.ExpiresIn <= 0 {
		return time.Time{}
	}

	return i.ObtainedAt.Add(time.Duration(i.ExpiresIn) * time.Second)
}

// IsAppToken reports whether the token belongs to an application rather than a user.
func (i *TokenInfo) IsAppToken() bool {
	return i.UserID == ""
}
