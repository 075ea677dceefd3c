package models

import (
	"bytes"
	"strconv"
)

// The input forms post half-filled rows: empty strings for untouched
// fields, numbers quoted or not depending on the client. A corrupt field
// must not fail the whole submission, so these types decode anything
// numeric-ish and coerce the rest to zero. NaN and infinities are also
// zeroed so they can never reach an aggregate.

// FlexFloat is a float64 that tolerates sloppy JSON input.
type FlexFloat float64

// UnmarshalJSON accepts a JSON number, a quoted number, null or an empty
// string. Anything unparseable becomes 0.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat(coerceFloat(data))
	return nil
}

// Float64 returns the underlying value.
func (f FlexFloat) Float64() float64 { return float64(f) }

// FlexInt is an int64 that tolerates sloppy JSON input. Negative counts
// clamp to zero: leads and sales are tallies, not deltas.
type FlexInt int64

// UnmarshalJSON accepts a JSON number, a quoted number, null or an empty
// string. Anything unparseable becomes 0.
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	v := coerceFloat(data)
	if v < 0 {
		v = 0
	}
	*i = FlexInt(int64(v))
	return nil
}

// Int64 returns the underlying value.
func (i FlexInt) Int64() int64 { return int64(i) }

func coerceFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return 0
		}
		data = []byte(unquoted)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || v != v || v > maxSane || v < -maxSane {
		return 0
	}
	return v
}

// maxSane rejects infinities and absurd magnitudes that would be data
// entry errors anyway.
const maxSane = 1e15
