package models

import "time"

// User is an end user identified by their Telegram account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TelegramID   int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	LanguageCode *string   `gorm:"size:12" json:"language_code"`
	FullName     *string   `gorm:"size:256" json:"full_name"`
	Contact      *string   `gorm:"size:500" json:"contact"`
	Client       *Client   `gorm:"foreignKey:UserID" json:"client,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Language returns the user's language code, or "" when unset.
func (u *User) Language() string {
	if u.LanguageCode == nil {
		return ""
	}
	return *u.LanguageCode
}

// MissingProfileFields lists the profile fields required before submitting a posting.
func (u *User) MissingProfileFields() []string {
	var missing []string
	if u.Client == nil || u.Client.CountryID == nil {
		missing = append(missing, "country")
	}
	if u.Client == nil || u.Client.RegionID == nil {
		missing = append(missing, "region")
	}
	if u.Contact == nil || *u.Contact == "" {
		missing = append(missing, "contact")
	}
	return missing
}

// Client is the company profile attached to a user.
type Client struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	CompanyName *string `gorm:"size:300" json:"company_name"`
	IndustryID  *uint   `json:"industry_id"`
	CountryID   *uint   `json:"country_id"`
	RegionID    *uint   `json:"region_id"`
}

func (Client) TableName() string { return "clients" }

// Country is reference data, read-only here.
type Country struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Country) TableName() string { return "country" }

// Region is reference data, read-only here.
type Region struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CountryID uint   `gorm:"not null;index" json:"country_id"`
	Name      string `gorm:"not null" json:"name"`
}

func (Region) TableName() string { return "region" }
