package narration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ericogr/veilborn/internal/engine"
	"github.com/ericogr/veilborn/internal/game"
)

var (
	alice = engine.Side{ID: "p1", Name: "Alice"}
	bob   = engine.Side{ID: "p2", Name: "Bob"}
)

func sampleRound(t *testing.T, final bool) (engine.Result, engine.Outcome) {
	t.Helper()
	mk := func(name, owner string, typ engine.CardType, atk, def, spd, col int) engine.PlacedCard {
		return engine.NewPlacedCard(engine.PlacedCard{
			InstanceID: name, Name: name, Owner: owner, Type: typ, Level: 1,
			BaseAttack: atk, BaseDefense: def, Speed: spd, Column: col, Row: engine.RowFront,
		})
	}
	res := engine.Resolve([]engine.PlacedCard{
		mk("Morthex", "p1", engine.Specter, 6, 8, 8, 0),
		mk("Veyra", "p1", engine.Specter, 9, 6, 10, 1),
		mk("Ashling", "p1", engine.Specter, 5, 5, 7, 2),
		mk("Bonecrag", "p2", engine.Behemoth, 9, 14, 2, 0),
	}, "p1", "p2", final)
	round := 2
	if final {
		round = 5
	}
	out := engine.Evaluate(engine.EvaluateInput{Result: res, Player1: alice, Player2: bob, Prior: engine.Score{Player1: 1}, Round: round})
	return res, out
}

func TestBuildPayload(t *testing.T) {
	res, out := sampleRound(t, false)
	p := BuildPayload(2, res, out, alice, bob)

	if p.Round != 2 || p.VeilCollapse {
		t.Fatalf("unexpected header %+v", p)
	}
	if p.FlankingBonusAwardedTo == nil || *p.FlankingBonusAwardedTo != "Alice" {
		t.Fatalf("expected Alice to flank, got %v", p.FlankingBonusAwardedTo)
	}
	if len(p.CombatEvents) != len(res.Events) {
		t.Fatalf("expected %d events, got %d", len(res.Events), len(p.CombatEvents))
	}
	for _, ev := range p.CombatEvents {
		if ev.Attacker.Owner != "Alice" && ev.Attacker.Owner != "Bob" {
			t.Fatalf("owners must be display names, got %q", ev.Attacker.Owner)
		}
	}
	if p.RoundOutcome.Winner != "Alice" || p.RoundOutcome.PointsAwarded != out.Points {
		t.Fatalf("unexpected outcome %+v", p.RoundOutcome)
	}
	if p.MatchScore["Alice"] != out.Score.Player1 || p.MatchScore["Bob"] != out.Score.Player2 {
		t.Fatalf("unexpected score %+v", p.MatchScore)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"flanking_bonus_awarded_to"`, `"combat_events"`, `"round_outcome"`, `"match_score"`, `"match_winner"`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("payload missing %s: %s", key, b)
		}
	}
}

func TestBuildPayload_Tie(t *testing.T) {
	out := engine.Outcome{Reason: "even", Score: engine.Score{}}
	p := BuildPayload(1, engine.Result{}, out, alice, bob)
	if p.RoundOutcome.Winner != TieLabel || p.MatchWinner != nil || p.FlankingBonusAwardedTo != nil {
		t.Fatalf("unexpected tie payload %+v", p)
	}
}

func TestParse(t *testing.T) {
	good := `{"narration": "The Veil tore.", "round_title": "Hollow Dawn", "key_moment": "Morthex struck.", "tone": "Grim"}`
	n, err := Parse(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Tone != ToneGrim || n.RoundTitle != "Hollow Dawn" || n.Fallback {
		t.Fatalf("unexpected narration %+v", n)
	}

	fenced := "Here you go:\n```json\n" + good + "\n```"
	if _, err := Parse(fenced); err != nil {
		t.Fatalf("fenced response should parse: %v", err)
	}

	// Extra fields trying to report a different score are ignored.
	withScore := `{"narration": "x", "round_title": "y", "key_moment": "z", "tone": "chaotic", "match_score": {"Alice": 99}, "winner": "Bob"}`
	if n, err := Parse(withScore); err != nil || n.Tone != ToneChaotic {
		t.Fatalf("extra fields must be ignored: %v %+v", err, n)
	}

	bad := []string{
		"",
		"the veil is silent",
		`["narration"]`,
		`{"narration": "x", "round_title": "y", "key_moment": "z", "tone": "jolly"}`,
		`{"narration": "", "round_title": "y", "key_moment": "z", "tone": "tense"}`,
		`{"narration": "x", "key_moment": "z", "tone": "tense"}`,
	}
	for _, raw := range bad {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformedNarration) {
			t.Fatalf("expected malformed error for %q, got %v", raw, err)
		}
	}
}

type stubNarrator struct {
	n     Narration
	err   error
	delay time.Duration
}

func (s stubNarrator) Narrate(ctx context.Context, p Payload) (Narration, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Narration{}, ctx.Err()
		}
	}
	return s.n, s.err
}

func TestNarrate_FallbackPaths(t *testing.T) {
	p := Payload{Round: 3, RoundOutcome: RoundOutcome{Reason: "Alice had higher surviving defense"}}
	want := Narration{Narration: "ok", RoundTitle: "t", KeyMoment: "k", Tone: ToneTense}

	if got := Narrate(context.Background(), stubNarrator{n: want}, p, time.Second); got != want {
		t.Fatalf("expected narrator output, got %+v", got)
	}
	got := Narrate(context.Background(), stubNarrator{err: errors.New("boom")}, p, time.Second)
	if !got.Fallback || got.RoundTitle != "Round 3" || got.KeyMoment != p.RoundOutcome.Reason {
		t.Fatalf("expected fallback on error, got %+v", got)
	}
	start := time.Now()
	got = Narrate(context.Background(), stubNarrator{n: want, delay: time.Second}, p, 20*time.Millisecond)
	if !got.Fallback {
		t.Fatalf("expected fallback on timeout, got %+v", got)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("timeout was not honored")
	}
	if got := Narrate(context.Background(), nil, p, time.Second); !got.Fallback {
		t.Fatalf("expected fallback without narrator")
	}
}

func TestOpenAINarrator(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"narration\":\"Shadows fell.\",\"round_title\":\"The Hollow Moves\",\"key_moment\":\"Veyra struck first.\",\"tone\":\"tense\"}"}}]}`))
	}))
	defer srv.Close()

	res, out := sampleRound(t, false)
	n := NewOpenAINarrator("sk-test", srv.URL, "gpt-test", "")
	got, err := n.Narrate(context.Background(), BuildPayload(2, res, out, alice, bob))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RoundTitle != "The Hollow Moves" || got.Tone != ToneTense {
		t.Fatalf("unexpected narration %+v", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !strings.Contains(gotBody, "gpt-test") || !strings.Contains(gotBody, "combat_events") {
		t.Fatalf("request body missing model or payload: %s", gotBody)
	}
}

func TestOpenAINarrator_Errors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"once upon a time"}}]}`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			n := NewOpenAINarrator("sk-test", srv.URL, "", "")
			if _, err := n.Narrate(context.Background(), Payload{Round: 1}); err == nil {
				t.Fatalf("expected error")
			}
			// The same failure never escapes Narrate.
			if got := Narrate(context.Background(), n, Payload{Round: 1}, time.Second); !got.Fallback {
				t.Fatalf("expected fallback")
			}
		})
	}
	if _, err := NewOpenAINarrator("", "", "", "").Narrate(context.Background(), Payload{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestImagePrompt(t *testing.T) {
	if got := ImagePrompt(engine.Result{}); !strings.Contains(got, "Veil rift") {
		t.Fatalf("unexpected empty-round prompt %q", got)
	}
	res, _ := sampleRound(t, false)
	got := ImagePrompt(res)
	if !strings.Contains(got, "named") || !strings.Contains(got, "Dark fantasy") {
		t.Fatalf("unexpected prompt %q", got)
	}
	res.VeilCollapse = true
	if got := ImagePrompt(res); !strings.Contains(got, "Veil itself tearing apart") {
		t.Fatalf("final round prompt should show the collapse: %q", got)
	}
}

func TestCardArtPrompt(t *testing.T) {
	c := game.CardTemplate{
		Name:    "Vorath the Consuming",
		Type:    engine.Behemoth,
		Rarity:  game.RarityLegendary,
		Ability: &engine.Ability{Trigger: engine.TriggerOnDeath, Effect: engine.EffectVeilEcho, Value: 0.5},
	}
	got := CardArtPrompt(c)
	for _, want := range []string{"Vorath the Consuming", "flesh-horror", "mirror image", "ornate frame"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q: %s", want, got)
		}
	}
	plain := CardArtPrompt(game.CardTemplate{Name: "Wisp", Type: engine.Phantom})
	if !strings.Contains(plain, "clear and iconic") {
		t.Fatalf("unknown rarity should frame like a common card: %s", plain)
	}
}
