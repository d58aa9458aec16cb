package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is one of a fixed set of roles with strictly increasing privilege scope.
type Role string

const (
	RoleUser        Role = "ROLE_USER"
	RoleStoreKeeper Role = "ROLE_STORE_KEEPER"
	RoleCompta      Role = "ROLE_COMPTA"
	RoleAdmin       Role = "ROLE_ADMIN"
)

var roleRank = map[Role]int{
	RoleUser:        0,
	RoleStoreKeeper: 1,
	RoleCompta:      2,
	RoleAdmin:       3,
}

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role carries at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// User is the authoritative identity record in the relational store.
// Never hard-deleted except through an explicit erasure request, which
// cascades to the user's orders.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	FirstName    string `json:"first_name" gorm:"size:100;not null"`
	LastName     string `json:"last_name" gorm:"size:100;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	Phone        string `json:"phone,omitempty" gorm:"size:30"`
	Role         Role   `json:"role" gorm:"type:varchar(30);not null;default:'ROLE_USER';index"`
	IsActive     bool   `json:"is_active" gorm:"default:true;index"`
	IsVerified   bool   `json:"is_verified" gorm:"default:false"`

	VerificationToken   string     `json:"-" gorm:"size:64;index"`
	VerificationExpires *time.Time `json:"-"`
	ResetToken          string     `json:"-" gorm:"size:64;index"`
	ResetExpires        *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeSave guards against unknown roles slipping into the table.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return gorm.ErrInvalidValue
	}
	return nil
}

// FullName returns the display name used in emails and invoices.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
