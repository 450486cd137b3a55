package keys

import (
	"fmt"
	"strings"
)

// CardKey produces a canonical key for a card name.
// Behavior: trims, lower-cases, drops a leading "the ", replaces spaces and
// dashes with underscores. Suitable for stable DB keys.
func CardKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "the ")
	s = strings.Join(strings.Fields(s), "_")
	return strings.ReplaceAll(s, "-", "_")
}

// RoundKey identifies one round of one match.
func RoundKey(matchPublicID string, round int) string {
	return fmt.Sprintf("round:%s:%d", matchPublicID, round)
}

// InstanceKey names an owned card inside combat events.
func InstanceKey(ownedCardID uint) string {
	return fmt.Sprintf("card-%d", ownedCardID)
}

// RoundArtKey names the illustration of one round.
func RoundArtKey(matchPublicID string, round int) string {
	return fmt.Sprintf("art:round:%s:%d", matchPublicID, round)
}

// CardArtKey names the portrait of a catalog card.
func CardArtKey(templateKey string) string {
	return "art:card:" + CardKey(templateKey)
}
