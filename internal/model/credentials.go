package model

import "time"

// CredentialDocument is the persisted form of the user table and auth settings
type CredentialDocument struct {
	Users  map[string]UserRecord `json:"users"`
	Config AuthSettings          `json:"config"`
}

// UserRecord is one persisted user. CreatedAt is stored as unix seconds.
type UserRecord struct {
	Username        string `json:"username"`
	PasswordHash    string `json:"passwordHash"`
	Email           string `json:"email"`
	CreatedAt       int64  `json:"createdAt"`
	IsActive        bool   `json:"isActive"`
	PermissionLevel int    `json:"permissionLevel"`
}

// AuthSettings is the persisted auth configuration
type AuthSettings struct {
	TokenExpirationMinutes int  `json:"tokenExpirationMinutes"`
	AllowGuests            bool `json:"allowGuests"`
}

// NewCredentialDocument returns an empty document with the given settings
func NewCredentialDocument(settings AuthSettings) *CredentialDocument {
	return &CredentialDocument{
		Users:  make(map[string]UserRecord),
		Config: settings,
	}
}

// UserRecordFromUser converts a User to its persisted form
func UserRecordFromUser(u *User) UserRecord {
	return UserRecord{
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		Email:           u.Email,
		CreatedAt:       u.CreatedAt.Unix(),
		IsActive:        u.IsActive,
		PermissionLevel: int(u.PermissionLevel),
	}
}

// ToUser converts a persisted record back to a User.
// Out-of-range permission levels fall back to player.
func (r UserRecord) ToUser() *User {
	level := PermissionLevel(r.PermissionLevel)
	if !level.Valid() {
		level = PermissionPlayer
	}
	return &User{
		Username:        r.Username,
		PasswordHash:    r.PasswordHash,
		Email:           r.Email,
		CreatedAt:       time.Unix(r.CreatedAt, 0).UTC(),
		IsActive:        r.IsActive,
		PermissionLevel: level,
	}
}

// Clone returns a deep copy of the document
func (d *CredentialDocument) Clone() *CredentialDocument {
	out := &CredentialDocument{
		Users:  make(map[string]UserRecord, len(d.Users)),
		Config: d.Config,
	}
	for k, v := range d.Users {
		out.Users[k] = v
	}
	return out
}
