package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileAttributes are the public profile fields supplied at sign-up or on
// first federated sign-in.
type ProfileAttributes struct {
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Age         int    `json:"age"`
}

// Profile is the public profile model. A profile is written once per
// principal; the UID column is the principal subject.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UID           string     `bun:"uid,notnull,unique" json:"uid"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Age           *int       `bun:"age" json:"age,omitempty"`
	Provider      string     `bun:"provider" json:"provider,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewProfile builds the profile row for a principal. Attributes are optional;
// a nil attrs produces a bare profile keyed by uid.
func NewProfile(uid, email, provider string, attrs *ProfileAttributes) *Profile {
	now := time.Now().UTC()
	p := &Profile{
		ID:        uuid.New(),
		UID:       uid,
		Email:     email,
		Provider:  provider,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	if attrs != nil {
		p.DisplayName = attrs.DisplayName
		p.Phone = attrs.Phone
		if attrs.Age > 0 {
			age := attrs.Age
			p.Age = &age
		}
	}
	return p
}
