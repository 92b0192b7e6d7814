package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// UserRole defines user roles returned by the backend whoami lookup
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleRep   UserRole = "rep"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRep:
		return true
	}
	return false
}

// Identity is the backend's view of the signed-in user
type Identity struct {
	UID   string   `json:"uid"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// IsAdmin checks if user is admin
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// ProfileFields are the user-editable profile attributes. Nil fields are
// left untouched by an update.
type ProfileFields struct {
	DisplayName *string `json:"display_name,omitempty"`
	Company     *string `json:"company,omitempty"`
	JobTitle    *string `json:"job_title,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the update would change nothing
func (f ProfileFields) IsEmpty() bool {
	return f.DisplayName == nil && f.Company == nil && f.JobTitle == nil && f.Phone == nil && f.AvatarURL == nil
}

// Apply overlays the non-nil fields of src
func (f *ProfileFields) Apply(src ProfileFields) {
	if src.DisplayName != nil {
		f.DisplayName = src.DisplayName
	}
	if src.Company != nil {
		f.Company = src.Company
	}
	if src.JobTitle != nil {
		f.JobTitle = src.JobTitle
	}
	if src.Phone != nil {
		f.Phone = src.Phone
	}
	if src.AvatarURL != nil {
		f.AvatarURL = src.AvatarURL
	}
}

// Patch returns the non-nil fields as a JSON document for merge updates
func (f ProfileFields) Patch() (datatypes.JSON, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Profile is the fallback document-store copy of a user's profile
type Profile struct {
	UserID    string         `json:"user_id" gorm:"column:user_id;type:varchar(128);primary_key"`
	Email     string         `json:"email" gorm:"type:varchar(255);index"`
	Document  datatypes.JSON `json:"document" gorm:"type:jsonb;default:'{}';not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName pins the gorm table name
func (Profile) TableName() string {
	return "profiles"
}

// Fields decodes the stored document
func (p *Profile) Fields() (ProfileFields, error) {
	var f ProfileFields
	if p == nil || len(p.Document) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(p.Document, &f); err != nil {
		return f, err
	}
	return f, nil
}
