package models

import "time"

// Profile field names as served by Metamob
const (
	FieldPseudo   = "pseudo"
	FieldLink     = "lien"
	FieldLastSeen = "derniere_connexion"
)

// LastSeenLayout is the timestamp layout of derniere_connexion
const LastSeenLayout = "2006-01-02 15:04:05"

// EarliestLastSeen sorts players without a profile before everyone else
var EarliestLastSeen = time.Date(2000, time.October, 10, 12, 12, 12, 0, time.UTC)

// UserProfile holds the attributes Metamob returns for a user
type UserProfile map[string]interface{}

// Pseudo returns the in-game display name, "" when unknown
func (p UserProfile) Pseudo() string {
	return p.text(FieldPseudo)
}

// Link returns the profile link, "" when unknown
func (p UserProfile) Link() string {
	return p.text(FieldLink)
}

// LastSeenText returns the raw last connection timestamp
func (p UserProfile) LastSeenText() string {
	return p.text(FieldLastSeen)
}

// LastSeen parses the last connection timestamp, falling back to EarliestLastSeen
func (p UserProfile) LastSeen() time.Time {
	t, err := time.Parse(LastSeenLayout, p.LastSeenText())
	if err != nil {
		return EarliestLastSeen
	}
	return t
}

// Known reports whether the profile has been fetched (has a pseudo)
func (p UserProfile) Known() bool {
	_, ok := p[FieldPseudo]
	return ok
}

func (p UserProfile) text(field string) string {
	v, ok := p[field]
	if !ok || v == nil {
		return ""
	}
	return fieldText(v)
}

// UserDirectory maps Metamob usernames to their profile, in insertion order.
// Freshly discovered users have an empty profile.
type UserDirectory struct {
	users keyedValues[UserProfile]
}

// NewUserDirectory creates an empty directory
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{}
}

// Set stores the profile of a user
func (d *UserDirectory) Set(username string, profile UserProfile) {
	if profile == nil {
		profile = UserProfile{}
	}
	d.users.set(username, profile)
}

// Add registers a user with an empty profile unless already known.
// It reports whether the user was new.
func (d *UserDirectory) Add(username string) bool {
	if _, ok := d.users.get(username); ok {
		return false
	}
	d.users.set(username, UserProfile{})
	return true
}

// Usernames returns the users in insertion order
func (d *UserDirectory) Usernames() []string {
	if d == nil {
		return nil
	}
	return d.users.orderedKeys()
}

// Len returns the number of users
func (d *UserDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.users.keys)
}

// Profile returns the profile of a user and whether it exists
func (d *UserDirectory) Profile(username string) (UserProfile, bool) {
	if d == nil {
		return nil, false
	}
	return d.users.get(username)
}

// MarshalJSON encodes the directory in insertion order
func (d *UserDirectory) MarshalJSON() ([]byte, error) {
	return d.users.encode()
}

// UnmarshalJSON decodes a name-keyed object, keeping its key order
func (d *UserDirectory) UnmarshalJSON(data []byte) error {
	d.users = keyedValues[UserProfile]{}
	if err := d.users.decode(data); err != nil {
		return err
	}
	for _, k := range d.users.keys {
		if d.users.values[k] == nil {
			d.users.values[k] = UserProfile{}
		}
	}
	return nil
}
