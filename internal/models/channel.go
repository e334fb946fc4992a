package models

// Family groups social platforms by the copy style they take. Each family
// maps to one of the three generated social-copy variants.
type Family string

const (
	// FamilyShort is short-form platforms (X/Twitter style).
	FamilyShort Family = "short"
	// FamilyProfessional is long-form professional platforms (LinkedIn style).
	FamilyProfessional Family = "professional"
	// FamilyBullet is messaging platforms that read best as bullets (Telegram style).
	FamilyBullet Family = "bullet"
)

// SocialChannel is a distribution target. Each channel has exactly one
// preferred aspect ratio, used to pre-select the compositor output size
// when the channel is targeted.
type SocialChannel struct {
	ID        string      `json:"id"`
	Platform  string      `json:"platform"`
	Name      string      `json:"name"`
	Family    Family      `json:"family"`
	Ratio     AspectRatio `json:"ratio"`
	Connected bool        `json:"connected"`
}

// DefaultChannels is the built-in channel catalog. Connection status is a
// demo stand-in; a real deployment would sync it from the platforms.
func DefaultChannels() []SocialChannel {
	return []SocialChannel{
		{ID: "x", Platform: "twitter", Name: "X (Twitter)", Family: FamilyShort, Ratio: RatioLandscape, Connected: true},
		{ID: "linkedin", Platform: "linkedin", Name: "LinkedIn", Family: FamilyProfessional, Ratio: RatioLandscape, Connected: true},
		{ID: "telegram", Platform: "telegram", Name: "Telegram", Family: FamilyBullet, Ratio: RatioSquare, Connected: true},
		{ID: "instagram", Platform: "instagram", Name: "Instagram", Family: FamilyShort, Ratio: RatioPortrait, Connected: false},
		{ID: "blog", Platform: "web", Name: "Lumafin Blog", Family: FamilyProfessional, Ratio: RatioLandscape, Connected: true},
	}
}

// ConnectedChannels filters the catalog down to channels that can receive
// a post right now.
func ConnectedChannels(all []SocialChannel) []SocialChannel {
	var out []SocialChannel
	for _, c := range all {
		if c.Connected {
			out = append(out, c)
		}
	}
	return out
}
