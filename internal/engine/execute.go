package engine

import "math"

// executeAttacks walks the frozen turn order. Cards destroyed before their
// turn are skipped, as are cards with nothing to target.
func (cc *combatContext) executeAttacks() {
	for _, i := range cc.turnOrder {
		if !cc.cards[i].Alive() {
			continue
		}
		j := cc.findTarget(i)
		if j < 0 {
			continue
		}
		cc.attack(i, j)
	}
}

func (cc *combatContext) attack(i, j int) {
	att := &cc.cards[i]
	def := &cc.cards[j]

	mult := Multiplier(att.Type, def.Type)
	damage := int(math.Floor(float64(att.EffectiveAttack()) * mult))
	if h, ok := hooksFor(def.Ability); ok && h.mitigate != nil {
		damage = h.mitigate(*def.Ability, damage)
	}
	def.CurrentHP -= damage

	ev := CombatEvent{
		Attacker:          att.snapshot(),
		Defender:          def.snapshot(),
		TypeAdvantage:     AdvantageLabel(mult),
		Multiplier:        mult,
		DamageDealt:       damage,
		PositionBonus:     att.PositionBonus,
		DefenderDestroyed: !def.Alive(),
		attackerIdx:       i,
		defenderIdx:       j,
	}

	if h, ok := hooksFor(att.Ability); ok && h.onHit != nil {
		if note := h.onHit(*att.Ability, cc, i, j, damage); note != nil {
			ev.Ability = note
		}
	}
	// A death echo replaces any on-hit note: it is the more significant beat.
	if ev.DefenderDestroyed {
		if h, ok := hooksFor(def.Ability); ok && h.onDestroyed != nil {
			if note := h.onDestroyed(*def.Ability, cc, j, i); note != nil {
				ev.Ability = note
			}
		}
	}
	cc.record(ev)
}
