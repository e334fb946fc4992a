package workflow

import (
	"strings"

	"lumafin/internal/ai"
	"lumafin/internal/models"
)

// variantFor picks the generated copy variant for a platform family.
// The mapping is a fixed lookup so every family is handled explicitly.
var variantFor = map[models.Family]func(ai.SocialDrafts) string{
	models.FamilyShort:        func(d ai.SocialDrafts) string { return d.Twitter },
	models.FamilyProfessional: func(d ai.SocialDrafts) string { return d.LinkedIn },
	models.FamilyBullet:       func(d ai.SocialDrafts) string { return d.Telegram },
}

// hashtagSuffix joins tags into the "#a #b #c" list appended to every
// social copy. Tags are lowercased and internal spaces removed so they
// survive as single hashtags.
func hashtagSuffix(tags []string) string {
	var parts []string
	for _, tag := range tags {
		t := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(tag)), " ", "")
		if t == "" {
			continue
		}
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, " ")
}

// buildSocialCopy derives per-channel post text: each connected channel
// gets the variant for its platform family with the hashtag list appended.
func buildSocialCopy(channels []models.SocialChannel, drafts ai.SocialDrafts, tags []string) map[string]string {
	suffix := hashtagSuffix(tags)

	out := make(map[string]string, len(channels))
	for _, ch := range channels {
		if !ch.Connected {
			continue
		}

		pick, ok := variantFor[ch.Family]
		if !ok {
			pick = variantFor[models.FamilyShort]
		}
		text := strings.TrimSpace(pick(drafts))

		if suffix != "" {
			text = text + "\n\n" + suffix
		}
		out[ch.ID] = text
	}
	return out
}
