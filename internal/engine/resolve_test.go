package engine

import (
	"fmt"
	"testing"
)

const (
	p1 = "p1"
	p2 = "p2"
)

func card(name, owner string, t CardType, atk, def, spd, col int, row Row) PlacedCard {
	return NewPlacedCard(PlacedCard{
		InstanceID:  name,
		Name:        name,
		Owner:       owner,
		Type:        t,
		Level:       1,
		BaseAttack:  atk,
		BaseDefense: def,
		Speed:       spd,
		Column:      col,
		Row:         row,
	})
}

func findCard(t *testing.T, res Result, name string) PlacedCard {
	t.Helper()
	for _, c := range res.Board {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("card %s not on board", name)
	return PlacedCard{}
}

func TestResolve_NeutralExchange(t *testing.T) {
	cards := []PlacedCard{
		card("Quick", p1, Specter, 6, 10, 10, 0, RowFront),
		card("Slow", p2, Specter, 3, 8, 5, 0, RowFront),
	}
	res := Resolve(cards, p1, p2, false)
	if len(res.Events) == 0 {
		t.Fatalf("expected events")
	}
	ev := res.Events[0]
	if ev.Order != 1 || ev.Attacker.Name != "Quick" || ev.Defender.Name != "Slow" {
		t.Fatalf("unexpected first event: %+v", ev)
	}
	if ev.DamageDealt != 6 {
		t.Fatalf("expected 6 damage, got %d", ev.DamageDealt)
	}
	if ev.DefenderDestroyed {
		t.Fatalf("defender should survive")
	}
	if ev.TypeAdvantage != "neutral (1.0x)" {
		t.Fatalf("unexpected label %q", ev.TypeAdvantage)
	}
	if hp := findCard(t, res, "Slow").CurrentHP; hp < 2 {
		t.Fatalf("expected defender to keep at least 2 hp, got %d", hp)
	}
	// The survivor answers with its own attack.
	if len(res.Events) != 2 || res.Events[1].Attacker.Name != "Slow" || res.Events[1].Order != 2 {
		t.Fatalf("expected defender counterattack as event 2, got %+v", res.Events)
	}
	if res.Player1Remaining != 7 || res.Player2Remaining != 2 {
		t.Fatalf("unexpected remaining defense %d/%d", res.Player1Remaining, res.Player2Remaining)
	}
}

func TestResolve_TypeAdvantage(t *testing.T) {
	// Attacker sits in the back row so no column pressure bonus applies.
	cards := []PlacedCard{
		card("Ghost", p1, Specter, 10, 5, 10, 0, RowBack),
		card("Brute", p2, Behemoth, 1, 30, 1, 0, RowFront),
	}
	res := Resolve(cards, p1, p2, false)
	ev := res.Events[0]
	if ev.DamageDealt != 15 {
		t.Fatalf("expected floor(10*1.5)=15, got %d", ev.DamageDealt)
	}
	if ev.TypeAdvantage != "advantage (1.5x)" {
		t.Fatalf("unexpected label %q", ev.TypeAdvantage)
	}
}

func TestResolve_DisadvantageFloors(t *testing.T) {
	cards := []PlacedCard{
		card("Ghost", p1, Specter, 7, 30, 10, 0, RowBack),
		card("Husk", p2, Revenant, 0, 30, 1, 0, RowBack),
	}
	res := Resolve(cards, p1, p2, false)
	if got := res.Events[0].DamageDealt; got != 5 {
		t.Fatalf("expected floor(7*0.75)=5, got %d", got)
	}
}

func TestResolve_ArmorReducesDamage(t *testing.T) {
	wall := card("Wall", p2, Revenant, 0, 20, 1, 0, RowFront)
	wall.Ability = &Ability{Trigger: TriggerPassive, Effect: EffectArmor, Value: 2}
	cards := []PlacedCard{
		card("Hitter", p1, Revenant, 5, 20, 10, 0, RowFront),
		wall,
	}
	res := Resolve(cards, p1, p2, false)
	if got := res.Events[0].DamageDealt; got != 3 {
		t.Fatalf("expected armor to reduce 5 to 3, got %d", got)
	}
	if hp := findCard(t, res, "Wall").CurrentHP; hp != 17 {
		t.Fatalf("expected wall hp 17, got %d", hp)
	}
}

func TestResolve_ArmorFloorsAtZero(t *testing.T) {
	wall := card("Wall", p2, Revenant, 0, 20, 1, 0, RowFront)
	wall.Ability = &Ability{Trigger: TriggerPassive, Effect: EffectArmor, Value: 5}
	cards := []PlacedCard{card("Weak", p1, Revenant, 2, 20, 10, 0, RowFront), wall}
	res := Resolve(cards, p1, p2, false)
	if got := res.Events[0].DamageDealt; got != 0 {
		t.Fatalf("expected 0 damage, got %d", got)
	}
}

func TestResolve_VeilEchoDamagesKiller(t *testing.T) {
	vorath := card("Vorath", p2, Behemoth, 10, 5, 1, 0, RowFront)
	vorath.Ability = &Ability{Trigger: TriggerOnDeath, Effect: EffectVeilEcho, Value: 0.5}
	cards := []PlacedCard{card("Killer", p1, Revenant, 8, 20, 9, 0, RowFront), vorath}

	res := Resolve(cards, p1, p2, false)
	if len(res.Events) != 1 {
		t.Fatalf("expected a single event, got %d", len(res.Events))
	}
	ev := res.Events[0]
	if !ev.DefenderDestroyed {
		t.Fatalf("expected Vorath destroyed")
	}
	if ev.Ability == nil || ev.Ability.Name != "Veil Echo" {
		t.Fatalf("expected veil echo annotation, got %+v", ev.Ability)
	}
	if hp := findCard(t, res, "Killer").CurrentHP; hp != 15 {
		t.Fatalf("expected killer at 20-5=15, got %d", hp)
	}
}

func TestResolve_VeilEchoCanDestroyAttacker(t *testing.T) {
	vorath := card("Vorath", p2, Behemoth, 12, 5, 1, 0, RowFront)
	vorath.Ability = &Ability{Trigger: TriggerOnDeath, Effect: EffectVeilEcho, Value: 0.5}
	cards := []PlacedCard{card("Killer", p1, Revenant, 8, 4, 9, 0, RowFront), vorath}

	res := Resolve(cards, p1, p2, false)
	if len(res.Events) != 1 || !res.Events[0].DefenderDestroyed {
		t.Fatalf("the killing blow must stay in the log: %+v", res.Events)
	}
	if findCard(t, res, "Killer").Alive() {
		t.Fatalf("expected the echo to destroy the attacker")
	}
	if res.Player1Remaining != 0 || res.Player2Remaining != 0 {
		t.Fatalf("expected both sides empty, got %d/%d", res.Player1Remaining, res.Player2Remaining)
	}
}

func TestResolve_LifestealHealsUpToMax(t *testing.T) {
	leech := card("Leech", p1, Specter, 10, 20, 10, 0, RowFront)
	leech.Ability = &Ability{Trigger: TriggerOnAttack, Effect: EffectLifesteal, Value: 0.3}
	leech.CurrentHP = 5
	cards := []PlacedCard{leech, card("Bag", p2, Specter, 0, 50, 1, 0, RowFront)}

	res := Resolve(cards, p1, p2, false)
	if hp := findCard(t, res, "Leech").CurrentHP; hp != 8 {
		t.Fatalf("expected 5+floor(10*0.3)=8, got %d", hp)
	}
	if res.Events[0].Ability == nil || res.Events[0].Ability.Name != "Lifesteal" {
		t.Fatalf("expected lifesteal annotation")
	}

	full := card("Full", p1, Specter, 10, 20, 10, 0, RowFront)
	full.Ability = leech.Ability
	res = Resolve([]PlacedCard{full, card("Bag", p2, Specter, 0, 50, 1, 0, RowFront)}, p1, p2, false)
	if hp := findCard(t, res, "Full").CurrentHP; hp != 20 {
		t.Fatalf("heal must cap at max hp, got %d", hp)
	}
	if res.Events[0].Ability != nil {
		t.Fatalf("no annotation expected when nothing was healed")
	}
}

func TestResolve_InertAbilitiesDoNothing(t *testing.T) {
	for _, eff := range []AbilityEffect{EffectThorns, EffectLastStand, EffectGhostStep} {
		a := card("A", p1, Specter, 6, 20, 10, 0, RowFront)
		a.Ability = &Ability{Effect: eff, Value: 3}
		d := card("D", p2, Specter, 0, 20, 1, 0, RowFront)
		d.Ability = &Ability{Effect: eff, Value: 3}
		res := Resolve([]PlacedCard{a, d}, p1, p2, false)
		if res.Events[0].DamageDealt != 6 || res.Events[0].Ability != nil {
			t.Fatalf("%s should not alter combat: %+v", eff, res.Events[0])
		}
		if findCard(t, res, "A").CurrentHP != 20 {
			t.Fatalf("%s should not damage the attacker", eff)
		}
	}
}

func TestResolve_TurnOrderFrozen(t *testing.T) {
	// Fast kills Mid before Mid acts; Mid never gets an event even though
	// it outpaces Slow.
	cards := []PlacedCard{
		card("Slow", p1, Specter, 1, 30, 1, 3, RowFront),
		card("Mid", p2, Specter, 5, 3, 5, 0, RowFront),
		card("Fast", p1, Specter, 9, 30, 9, 0, RowFront),
	}
	res := Resolve(cards, p1, p2, false)
	if len(res.Events) != 1 {
		t.Fatalf("expected one event, got %d: %+v", len(res.Events), res.Events)
	}
	if res.Events[0].Attacker.Name != "Fast" {
		t.Fatalf("expected Fast to act first")
	}
	// Slow has no target left once Mid is gone.
	if findCard(t, res, "Mid").Alive() {
		t.Fatalf("expected Mid destroyed")
	}
}

func TestResolve_SpeedTieBrokenByEffectiveAttack(t *testing.T) {
	cards := []PlacedCard{
		card("Weaker", p1, Specter, 3, 40, 5, 0, RowFront),
		card("Stronger", p2, Specter, 7, 40, 5, 0, RowFront),
	}
	res := Resolve(cards, p1, p2, false)
	if res.Events[0].Attacker.Name != "Stronger" || res.Events[1].Attacker.Name != "Weaker" {
		t.Fatalf("unexpected order: %+v", res.Events)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	cards := []PlacedCard{
		card("A", p1, Specter, 6, 9, 5, 0, RowFront),
		card("B", p1, Phantom, 6, 9, 5, 1, RowFront),
		card("C", p2, Revenant, 6, 9, 5, 0, RowFront),
		card("D", p2, Behemoth, 6, 9, 5, 2, RowBack),
	}
	first := Resolve(cards, p1, p2, false)
	for i := 0; i < 20; i++ {
		again := Resolve(cards, p1, p2, false)
		if len(again.Events) != len(first.Events) {
			t.Fatalf("event count changed between runs")
		}
		for j := range again.Events {
			if !sameEvent(again.Events[j], first.Events[j]) {
				t.Fatalf("event %d differs between runs", j)
			}
		}
	}
	if cards[0].CurrentHP != 9 || cards[0].PositionBonus != 0 {
		t.Fatalf("input cards must not be mutated")
	}
}

func sameEvent(a, b CombatEvent) bool {
	return a.Order == b.Order && a.Attacker == b.Attacker && a.Defender == b.Defender &&
		a.DamageDealt == b.DamageDealt && a.DefenderDestroyed == b.DefenderDestroyed
}

func TestResolve_FlankingExclusive(t *testing.T) {
	cards := []PlacedCard{
		card("F0", p1, Specter, 1, 40, 9, 0, RowFront),
		card("F1", p1, Specter, 1, 40, 9, 1, RowFront),
		card("F2", p1, Specter, 1, 40, 9, 2, RowFront),
		card("E0", p2, Specter, 1, 40, 1, 0, RowFront),
	}
	res := Resolve(cards, p1, p2, false)
	if res.FlankingPlayer != p1 {
		t.Fatalf("expected p1 to flank, got %q", res.FlankingPlayer)
	}
	for _, c := range res.Board {
		want := 0
		if c.Owner == p1 {
			want = FlankingBonus
		}
		if c.PositionBonus != want {
			t.Fatalf("%s: expected bonus %d, got %d", c.Name, want, c.PositionBonus)
		}
	}

	// Both sides wide: nobody flanks.
	cards = append(cards,
		card("E1", p2, Specter, 1, 40, 1, 1, RowFront),
		card("E2", p2, Specter, 1, 40, 1, 2, RowFront),
	)
	res = Resolve(cards, p1, p2, false)
	if res.FlankingPlayer != "" {
		t.Fatalf("expected no flanking, got %q", res.FlankingPlayer)
	}
}

func TestResolve_ColumnPressureAsymmetric(t *testing.T) {
	cards := []PlacedCard{
		card("Ghost", p1, Specter, 4, 40, 5, 1, RowFront),
		card("Brute", p2, Behemoth, 4, 40, 4, 1, RowFront),
	}
	res := Resolve(cards, p1, p2, false)
	if b := findCard(t, res, "Ghost").PositionBonus; b != ColumnPressureBonus {
		t.Fatalf("expected Ghost pressure bonus, got %d", b)
	}
	if b := findCard(t, res, "Brute").PositionBonus; b != 0 {
		t.Fatalf("disadvantaged side must not gain pressure, got %d", b)
	}
	// floor((4+1)*1.5) = 7
	if res.Events[0].DamageDealt != 7 || res.Events[0].PositionBonus != 1 {
		t.Fatalf("unexpected first event %+v", res.Events[0])
	}
}

func TestResolve_VeilCollapse(t *testing.T) {
	cards := []PlacedCard{
		card("A", p1, Specter, 7, 40, 5, 0, RowBack),
		card("B", p2, Specter, 4, 40, 4, 3, RowBack),
	}
	res := Resolve(cards, p1, p2, true)
	if !res.VeilCollapse {
		t.Fatalf("expected veil collapse flag")
	}
	if b := findCard(t, res, "A").PositionBonus; b != 3 {
		t.Fatalf("expected floor(7/2)=3 bonus, got %d", b)
	}
	if b := findCard(t, res, "B").PositionBonus; b != 2 {
		t.Fatalf("expected floor(4/2)=2 bonus, got %d", b)
	}
	if res.Events[0].DamageDealt != 10 {
		t.Fatalf("expected 7+3=10 damage, got %d", res.Events[0].DamageDealt)
	}
}

func TestResolve_LevelScaling(t *testing.T) {
	c := card("Vet", p1, Specter, 6, 8, 5, 0, RowFront)
	c.Level = 3
	c = NewPlacedCard(c)
	if c.Attack() != 8 || c.MaxHP() != 12 || c.CurrentHP != 12 {
		t.Fatalf("unexpected level scaling: atk=%d max=%d hp=%d", c.Attack(), c.MaxHP(), c.CurrentHP)
	}
}

func TestResolve_EmptySideProducesNoEvents(t *testing.T) {
	res := Resolve([]PlacedCard{card("Alone", p1, Specter, 5, 5, 5, 0, RowFront)}, p1, p2, false)
	if len(res.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(res.Events))
	}
	if res.Player1Remaining != 5 || res.Player2Remaining != 0 {
		t.Fatalf("unexpected remaining %d/%d", res.Player1Remaining, res.Player2Remaining)
	}
}

func TestResolve_VeilEchoNeedsOnDeathTrigger(t *testing.T) {
	vorath := card("Vorath", p2, Behemoth, 10, 5, 1, 0, RowFront)
	vorath.Ability = &Ability{Trigger: TriggerPassive, Effect: EffectVeilEcho, Value: 0.5}
	cards := []PlacedCard{card("Killer", p1, Revenant, 8, 20, 9, 0, RowFront), vorath}

	res := Resolve(cards, p1, p2, false)
	if res.Events[0].Ability != nil {
		t.Fatalf("echo without an on_death trigger must not fire: %+v", res.Events[0].Ability)
	}
	if hp := findCard(t, res, "Killer").CurrentHP; hp != 20 {
		t.Fatalf("expected killer untouched at 20, got %d", hp)
	}
}

func TestResolve_CrowdedBoardOneAttackPerLivingCard(t *testing.T) {
	echo := &Ability{Trigger: TriggerOnDeath, Effect: EffectVeilEcho, Value: 0.5}
	var cards []PlacedCard
	// Three fast p1 fronts trade into three p2 echo fronts and die to the
	// echo; the slow p2 fronts never get a turn.
	for col, spd := range []int{10, 9, 8} {
		cards = append(cards, card(fmt.Sprintf("A%d", col), p1, Specter, 10, 3, spd, col, RowFront))
		b := card(fmt.Sprintf("B%d", col), p2, Specter, 10, 5, 4-col, col, RowFront)
		b.Ability = echo
		cards = append(cards, b)
	}
	cards = append(cards,
		card("C0", p1, Specter, 2, 10, 6, 0, RowBack),
		card("D3", p2, Specter, 2, 10, 5, 3, RowBack),
	)

	res := Resolve(cards, p1, p2, false)
	if len(res.Events) != 5 {
		t.Fatalf("expected 5 attacks, got %d: %+v", len(res.Events), res.Events)
	}

	echoKilled := map[string]bool{"A0": true, "A1": true, "A2": true}
	attacked := map[string]bool{}
	dead := map[string]bool{}
	for _, ev := range res.Events {
		a, d := ev.Attacker.Name, ev.Defender.Name
		if attacked[a] {
			t.Fatalf("%s attacked twice", a)
		}
		if dead[a] || dead[d] {
			t.Fatalf("event %d involves a destroyed card: %s -> %s", ev.Order, a, d)
		}
		attacked[a] = true
		if ev.DefenderDestroyed {
			dead[d] = true
		}
		if ev.Ability != nil && ev.Ability.Name == "Veil Echo" && echoKilled[a] {
			dead[a] = true
		}
	}
	for name := range echoKilled {
		if !dead[name] || findCard(t, res, name).Alive() {
			t.Fatalf("expected %s to fall to the echo", name)
		}
	}
	if len(attacked) != len(res.Events) || len(attacked) > len(cards) {
		t.Fatalf("%d events from %d distinct attackers on a board of %d", len(res.Events), len(attacked), len(cards))
	}
	if c := findCard(t, res, "C0"); c.CurrentHP != 8 {
		t.Fatalf("expected D3 to reach C0 across the board, got hp %d", c.CurrentHP)
	}
}
