package checkpoint

import "github.com/nsstate/ipystate/pkg/persist"

// Codec, SaveState and LoadState are re-exported from pkg/persist so callers
// that only import pkg/checkpoint don't also need to reach into persist for
// the codec types a Manager's metadata records by name.
type Codec = persist.Codec

// NewJSONCodec creates a pretty-printed JSON codec.
func NewJSONCodec() *persist.JSONCodec {
	return persist.NewJSONCodec()
}

// NewCompactJSONCodec creates an unindented JSON codec, for namespaces that
// checkpoint often and want to keep bytes-on-disk down.
func NewCompactJSONCodec() *persist.JSONCodec {
	return persist.NewCompactJSONCodec()
}

// NewGobCodec creates a gob codec.
func NewGobCodec() *persist.GobCodec {
	return persist.NewGobCodec()
}

// SaveState saves state to a file in dir named basename+codec.Extension().
func SaveState(dir, basename string, codec Codec, state any) error {
	return persist.SaveState(dir, basename, codec, state)
}

// LoadState loads state from a file in dir named basename+codec.Extension().
func LoadState(dir, basename string, codec Codec, state any) error {
	return persist.LoadState(dir, basename, codec, state)
}
