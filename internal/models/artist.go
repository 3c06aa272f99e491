package models

import "time"

type Artist struct {
	ID         int64
	Name       string
	TwitterURL *string
	PixivURL   *string
	PatreonURL *string
	WebsiteURL *string
	Status     ModerationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SocialLinks returns the optional profile URLs keyed by field name. Each
// non-nil value is globally unique across artists.
func (a Artist) SocialLinks() map[string]*string {
	return map[string]*string{
		"twitter_url": a.TwitterURL,
		"pixiv_url":   a.PixivURL,
		"patreon_url": a.PatreonURL,
		"website_url": a.WebsiteURL,
	}
}
