package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the enforced permission level of a profile.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleStaff      Role = "staff"
	RoleVendor     Role = "vendor"
	RoleUser       Role = "user"
)

// Roles in display order, most privileged first.
var Roles = []Role{RoleSuperAdmin, RoleStaff, RoleVendor, RoleUser}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ProfileType is a descriptive category of an identity. It never grants access.
type ProfileType string

const (
	TypeSuperAdmin ProfileType = "SuperAdmin"
	TypeAccount    ProfileType = "Account"
	TypeSupport    ProfileType = "Support"
	TypeMedia      ProfileType = "Media"
	TypePartner    ProfileType = "Partner"
	TypeSupplier   ProfileType = "Supplier"
	TypePublicUser ProfileType = "PublicUser"
)

var ProfileTypes = []ProfileType{
	TypePublicUser, TypePartner, TypeSupplier, TypeAccount, TypeSupport, TypeMedia, TypeSuperAdmin,
}

func (t ProfileType) Valid() bool {
	for _, pt := range ProfileTypes {
		if t == pt {
			return true
		}
	}
	return false
}

const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// User is a sign-in identity. Its Profile shares the same ID.
type User struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email           string    `json:"email" gorm:"type:varchar(255);index"`
	PasswordHash    string    `json:"-" gorm:"type:varchar(255)"`
	Provider        string    `json:"provider" gorm:"type:varchar(20);not null;uniqueIndex:idx_users_provider_subject"`
	ProviderSubject string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_provider_subject"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Profile holds display data and the authorization role of one identity.
type Profile struct {
	ID        string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	FullName  *string     `json:"full_name" gorm:"type:varchar(255)"`
	AvatarURL *string     `json:"avatar_url" gorm:"type:varchar(500)"`
	Role      Role        `json:"role" gorm:"type:varchar(20);not null;default:'user';index"`
	Type      ProfileType `json:"type" gorm:"type:varchar(20);not null;default:'PublicUser'"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DisplayName falls back to a placeholder when no name is set.
func (p *Profile) DisplayName() string {
	if p == nil || p.FullName == nil || strings.TrimSpace(*p.FullName) == "" {
		return "Unnamed User"
	}
	return *p.FullName
}

// Initial is the avatar fallback letter.
func (p *Profile) Initial() string {
	if p == nil || p.FullName == nil {
		return "U"
	}
	name := strings.TrimSpace(*p.FullName)
	if name == "" {
		return "U"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

func (p *Profile) Avatar() string {
	if p == nil || p.AvatarURL == nil {
		return ""
	}
	return *p.AvatarURL
}

type Session struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	KeyID     string    `json:"key_id" gorm:"type:varchar(36);not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent string    `json:"user_agent" gorm:"type:varchar(500)"`
	CreatedAt time.Time `json:"created_at"`
}

// SigningKey is an HMAC key for session tokens. Retired keys verify until their grace ends.
type SigningKey struct {
	ID        string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Secret    string     `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	RetiredAt *time.Time `json:"retired_at"`
}
