package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent work. Only one job runs for a given key while other callers
// wait for its result.

import "golang.org/x/sync/singleflight"

// RoundGroup deduplicates round resolution keyed by keys.RoundKey
// (e.g. "round:<match uuid>:3").
var RoundGroup singleflight.Group

// StarterGroup deduplicates starter collection grants keyed by player id,
// so two concurrent joins do not grant the collection twice.
var StarterGroup singleflight.Group

// ImageGroup deduplicates artwork generation keyed by keys.CardArtKey or
// keys.RoundArtKey.
var ImageGroup singleflight.Group
