package models

import (
	"strings"
	"time"
)

// DefaultChannelLanguage is the label language used for channel posts when none is set.
const DefaultChannelLanguage = "kaa"

// Channel maps a (country, optional region) pair to one public Telegram channel.
type Channel struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CountryID    uint      `gorm:"not null;index" json:"country_id"`
	RegionID     *uint     `gorm:"index" json:"region_id"`
	ChannelURL   string    `gorm:"not null" json:"channel_url"`
	LanguageCode string    `gorm:"size:12;not null;default:kaa" json:"language_code"`
	Country      *Country  `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	Region       *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Channel) TableName() string { return "channels" }

// Handle returns the bare public username of the channel, without "@".
func (c *Channel) Handle() string {
	return NormalizeChannelHandle(c.ChannelURL)
}

// NormalizeChannelHandle reduces "@name", "t.me/name" or "https://t.me/name" to "name".
func NormalizeChannelHandle(raw string) string {
	h := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	for _, prefix := range []string{"www.t.me/", "t.me/", "telegram.me/"} {
		h = strings.TrimPrefix(h, prefix)
	}
	h = strings.TrimPrefix(h, "@")
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	return h
}
