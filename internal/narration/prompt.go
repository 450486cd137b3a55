package narration

import (
	"fmt"
	"strings"

	"github.com/ericogr/veilborn/internal/engine"
	"github.com/ericogr/veilborn/internal/game"
)

// DefaultSystemPrompt sets the storyteller voice. It can be replaced from
// the config file (narration.system_prompt).
const DefaultSystemPrompt = `You are the Veilborn Dungeon Master, the voice of the Rift where the world of the living thins into the realm of ancient, hungry entities.

You narrate battles between Veilweavers, sorcerers who summon creatures from both sides of the Veil. Be dramatic, evocative and mythological.

Rules:
1. Never alter outcomes. Damage, destroyed cards, the round winner and the score are already decided. Do not invent events.
2. Walk through combat_events in order; each one is a beat of the story.
3. Make type advantage felt: show why an advantaged strike lands and how a disadvantaged one struggles.
4. Mention flanking, Lifesteal and Veil Echo when they appear.
5. Address both Veilweavers by name.
6. End with the score, told dramatically.
7. If veil_collapse is true, open with reality tearing apart: this is the final round.
8. If match_winner is set, conclude the match and let the loser's entities dissolve into the Veil.

Type voices: Specters are quick and surgical shadows. Revenants are armored, relentless undead. Phantoms are illusory and maddening. Behemoths are ancient and crushing.

Return only a JSON object with exactly these fields:
{"narration": "150-250 words", "round_title": "3-6 words", "key_moment": "one sentence", "tone": "tense|devastating|triumphant|chaotic|grim"}`

// artStyle is appended to every image prompt so rounds and cards share a
// look.
const artStyle = "dark mythology aesthetic, Veil rift background with crackling dark energy, " +
	"professional fantasy card game art, dramatic shadows, no text, no UI elements"

var typeVisuals = map[engine.CardType]string{
	engine.Specter:  "translucent ghostly assassin trailing shadow tendrils",
	engine.Revenant: "armored undead warrior wreathed in pale death-fire",
	engine.Phantom:  "shimmering illusory figure shifting between forms",
	engine.Behemoth: "massive ancient flesh-horror with obsidian bone protrusions",
}

var rarityFraming = map[game.Rarity]string{
	game.RarityCommon:    "character portrait, clear and iconic design",
	game.RarityRare:      "detailed portrait in a mid-action pose, dramatic lighting",
	game.RarityEpic:      "three-quarter portrait surrounded by swirling dark energy, cinematic lighting",
	game.RarityLegendary: "full body portrait in an ornate frame, radiating terrible power",
}

var abilityVisuals = map[engine.AbilityEffect]string{
	engine.EffectLifesteal: "dark tendrils of stolen life force trailing from its hands",
	engine.EffectThorns:    "sharp crystalline spines erupting from its body",
	engine.EffectLastStand: "glowing wounds that pulse with defiant energy",
	engine.EffectGhostStep: "one foot stepping through a wall as if it were smoke",
	engine.EffectVeilEcho:  "a ghostly mirror image of itself hovering behind it",
	engine.EffectArmor:     "covered in thick plates of dark bone and iron",
}

func visualOf(t engine.CardType, fallback string) string {
	if v, ok := typeVisuals[t]; ok {
		return v
	}
	return fallback
}

// ImagePrompt describes the key moment of a round for an image generator.
func ImagePrompt(res engine.Result) string {
	ev, ok := engine.KeyMoment(res.Events)
	if !ok {
		return "A dark Veil rift crackling with energy, two shadowy figures facing each other, " + artStyle
	}
	attacker := visualOf(ev.Attacker.Type, "dark entity")
	defender := visualOf(ev.Defender.Type, "shadowy creature")
	action := "striking"
	if ev.DefenderDestroyed {
		action = "destroying"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dark fantasy battle scene, %s named %s %s a %s named %s",
		attacker, ev.Attacker.Name, action, defender, ev.Defender.Name)
	if ev.Ability != nil {
		switch ev.Ability.Name {
		case "Lifesteal":
			b.WriteString(", dark energy flowing from the victim into the attacker")
		case "Veil Echo":
			b.WriteString(", a ghostly echo of the destroyed creature lashing back at its killer")
		}
	}
	if res.VeilCollapse {
		b.WriteString(", the Veil itself tearing apart behind them as ancient darkness pours through")
	}
	b.WriteString(", cinematic composition, " + artStyle)
	return b.String()
}

// CardArtPrompt describes the portrait of a catalog card.
func CardArtPrompt(c game.CardTemplate) string {
	framing, ok := rarityFraming[c.Rarity]
	if !ok {
		framing = rarityFraming[game.RarityCommon]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s named %s", visualOf(c.Type, "dark entity"), c.Name)
	if c.Ability != nil {
		if v, ok := abilityVisuals[c.Ability.Effect]; ok {
			b.WriteString(", " + v)
		}
	}
	b.WriteString(", " + framing + ", dark fantasy card game portrait, " + artStyle)
	return b.String()
}
