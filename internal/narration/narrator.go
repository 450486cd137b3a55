package narration

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/logging"

	"github.com/tidwall/gjson"
)

// Tones accepted from the narrator.
const (
	ToneTense       = "tense"
	ToneDevastating = "devastating"
	ToneTriumphant  = "triumphant"
	ToneChaotic     = "chaotic"
	ToneGrim        = "grim"
)

var validTones = map[string]bool{
	ToneTense: true, ToneDevastating: true, ToneTriumphant: true, ToneChaotic: true, ToneGrim: true,
}

var ErrMalformedNarration = errors.New("malformed narration")

// Narration is the descriptive text for one round.
type Narration struct {
	Narration  string `json:"narration"`
	RoundTitle string `json:"round_title"`
	KeyMoment  string `json:"key_moment"`
	Tone       string `json:"tone"`
	// Fallback is true when the placeholder was used.
	Fallback bool `json:"fallback"`
}

// Narrator produces narration for a round payload.
type Narrator interface {
	Narrate(ctx context.Context, p Payload) (Narration, error)
}

// Fallback is the placeholder used whenever the narrator cannot deliver.
func Fallback(p Payload) Narration {
	return Narration{
		Narration:  "The Veil falls silent and no voice rises to tell this tale. The record of the battle stands on its own.",
		RoundTitle: fmt.Sprintf("Round %d", p.Round),
		KeyMoment:  p.RoundOutcome.Reason,
		Tone:       ToneGrim,
		Fallback:   true,
	}
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// Parse validates a narrator response. The text may be wrapped in prose or
// code fences; the first JSON object found is used. Only the four narration
// fields are read, anything else (scores, winners) is ignored.
func Parse(raw string) (Narration, error) {
	s := strings.TrimSpace(raw)
	if !gjson.Valid(s) {
		s = jsonObject.FindString(s)
		if s == "" || !gjson.Valid(s) {
			return Narration{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedNarration)
		}
	}
	r := gjson.Parse(s)
	if !r.IsObject() {
		return Narration{}, fmt.Errorf("%w: response is not an object", ErrMalformedNarration)
	}
	n := Narration{
		Narration:  strings.TrimSpace(r.Get("narration").String()),
		RoundTitle: strings.TrimSpace(r.Get("round_title").String()),
		KeyMoment:  strings.TrimSpace(r.Get("key_moment").String()),
		Tone:       strings.ToLower(strings.TrimSpace(r.Get("tone").String())),
	}
	for field, v := range map[string]string{"narration": n.Narration, "round_title": n.RoundTitle, "key_moment": n.KeyMoment} {
		if v == "" {
			return Narration{}, fmt.Errorf("%w: missing %s", ErrMalformedNarration, field)
		}
	}
	if !validTones[n.Tone] {
		return Narration{}, fmt.Errorf("%w: unknown tone %q", ErrMalformedNarration, n.Tone)
	}
	return n, nil
}

// Narrate asks n for narration, bounded by timeout. It never fails: any
// error, timeout or malformed response yields Fallback(p).
func Narrate(ctx context.Context, n Narrator, p Payload, timeout time.Duration) Narration {
	if n == nil {
		return Fallback(p)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		n   Narration
		err error
	}
	ch := make(chan result, 1)
	start := time.Now()
	go func() {
		out, err := n.Narrate(ctx, p)
		ch <- result{out, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			logging.Warn("narration failed; using fallback", r.err, logging.Fields{constants.LogFieldRound: p.Round})
			return Fallback(p)
		}
		logging.Info("narration ready", logging.Fields{constants.LogFieldRound: p.Round, constants.LogFieldDuration: time.Since(start).Milliseconds()})
		return r.n
	case <-ctx.Done():
		logging.Warn("narration timed out; using fallback", ctx.Err(), logging.Fields{constants.LogFieldRound: p.Round})
		return Fallback(p)
	}
}
