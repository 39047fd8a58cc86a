package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin       = "admin"
	RoleDistributor = "distributor"
)

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// Address is the postal address kept on the user profile.
type Address struct {
	Line1      string `gorm:"column:address_line1" json:"address_line1,omitempty"`
	Line2      string `gorm:"column:address_line2" json:"address_line2,omitempty"`
	City       string `gorm:"column:city" json:"city,omitempty"`
	Province   string `gorm:"column:province" json:"province,omitempty"`
	PostalCode string `gorm:"column:postal_code" json:"postal_code,omitempty"`
	Country    string `gorm:"column:country" json:"country,omitempty"`
}

// BankDetails are used by admins when paying out commissions.
type BankDetails struct {
	BankName      string `gorm:"column:bank_name" json:"bank_name,omitempty"`
	AccountNumber string `gorm:"column:bank_account_number" json:"bank_account_number,omitempty"`
	BranchCode    string `gorm:"column:bank_branch_code" json:"bank_branch_code,omitempty"`
	AccountType   string `gorm:"column:bank_account_type" json:"bank_account_type,omitempty"`
	AccountHolder string `gorm:"column:bank_account_holder" json:"bank_account_holder,omitempty"`
}

// User is a node of the sponsorship forest. SponsorID is the parent pointer;
// root users have none.
type User struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	Email         string      `gorm:"uniqueIndex;not null" json:"email"`
	Password      string      `gorm:"not null" json:"-"`
	Name          string      `gorm:"not null" json:"name"`
	Phone         string      `json:"phone,omitempty"`
	IBONumber     string      `gorm:"column:ibo_number;uniqueIndex;not null;size:32" json:"ibo_number"`
	SponsorNumber string      `gorm:"uniqueIndex;not null;size:32" json:"sponsor_number"`
	SponsorID     *string     `gorm:"index;size:36" json:"sponsor_id,omitempty"`
	Role          string      `gorm:"not null;size:16" json:"role"`
	Status        string      `gorm:"not null;size:16" json:"status"`
	TokenVersion  int         `gorm:"not null;default:1" json:"token_version"`
	Address       Address     `gorm:"embedded" json:"address"`
	Bank          BankDetails `gorm:"embedded" json:"bank"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleDistributor
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	if u.TokenVersion == 0 {
		u.TokenVersion = 1
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsValidUserStatus reports whether s is a known user status.
func IsValidUserStatus(s string) bool {
	return s == UserStatusActive || s == UserStatusInactive
}
