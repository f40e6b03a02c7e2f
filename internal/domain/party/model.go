package party

import "time"

// Party is any account that can hold relationships and exchange messages:
// a patient, care provider, testing facility, or dispensary.
type Party struct {
	ID           ID        `json:"id"`
	Kind         Kind      `json:"kind"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	Email        string    `json:"email"`
	NationalID   string    `json:"-"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Address      string    `json:"address,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Name returns the public display form: organizations carry a display name,
// people a first/last pair.
func (p *Party) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Profile is the public projection joined onto relationship listings.
type Profile struct {
	ID   ID     `json:"id"`
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// PublicProfile strips a Party down to the fields counterparties may see.
func (p *Party) PublicProfile() Profile {
	return Profile{ID: p.ID, Kind: p.Kind, Name: p.Name()}
}

// ProfileUpdate is the allow-listed set of mutable profile fields. Anything
// not named here (email, national id, password, date of birth) cannot be
// changed through the profile endpoint; unknown fields are rejected at bind
// time rather than stripped.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DisplayName *string `json:"display_name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Gender      *string `json:"gender"`
}

// Empty reports whether the update names no fields at all.
func (u *ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.DisplayName == nil &&
		u.PhoneNumber == nil && u.Address == nil && u.Gender == nil
}
