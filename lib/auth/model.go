package auth

import "time"

// AccessToken is the persisted form of an API token. Namespaces holds a
// comma separated list of granted namespaces, or "*" for full access.
// Revocation flips Active instead of deleting the row so the audit trail
// survives.
type AccessToken struct {
	ID         uint   `gorm:"primaryKey"`
	Token      string `gorm:"size:255;not null;uniqueIndex"`
	Namespaces string `gorm:"size:1024;not null"`
	// No default tag: gorm omits zero-valued fields that carry a column
	// default on Create, which would persist Active=false tokens as active.
	Active    bool `gorm:"not null"`
	CreatedAt time.Time
}

// TableName implements the gorm table name convention.
func (AccessToken) TableName() string {
	return "access_tokens"
}

// Permissions parses the token's namespace grant.
func (a AccessToken) Permissions() PermissionSet {
	return ParsePermissionSet(a.Namespaces)
}
