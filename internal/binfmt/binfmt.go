// Package binfmt implements a small declarative binary field decoder:
// a field list describes byte ranges (which may depend on
// previously-decoded fields) and a formatter that turns the raw slice
// into a Go value. It never panics on malformed input; fields whose
// bounds cannot be resolved, or whose range falls outside the
// supplied data, decode to nil.
package binfmt

import (
	"encoding/binary"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Result is the partially (or fully) decoded record, keyed by field
// label. Bound functions for later fields may inspect earlier values.
type Result map[string]any

// Bound resolves a byte position from the in-progress result. It
// returns ok=false to mean "null" — the field this bound belongs to
// is skipped entirely.
type Bound func(r Result) (pos int, ok bool)

// Fixed returns a Bound that always resolves to the same position,
// for fields whose layout never depends on other fields.
func Fixed(pos int) Bound {
	return func(Result) (int, bool) { return pos, true }
}

// Formatter turns a raw byte slice into a decoded value, or nil if
// the slice could not be interpreted.
type Formatter func(slice []byte) any

// Field is one entry of a decode table: (label, formatter, lower
// bound, upper bound). Both bounds are inclusive byte positions.
type Field struct {
	Label      string
	Format     Formatter
	Lower      Bound
	Upper      Bound
}

// F builds a Field for one of the built-in string formatter codes:
// "i"/"2i"/"4i"/"8i" (little-endian unsigned), ">i" (big-endian
// unsigned), "+i"/">+i" (signed, sign-extended from the high bit),
// "s" (raw bytes as a string) or "utf-16" (UTF-16LE text with a
// triple-NUL false-positive guard).
func F(label, code string, lower, upper Bound) Field {
	return Field{Label: label, Format: builtin(code), Lower: lower, Upper: upper}
}

// C builds a Field with a caller-supplied Formatter, for content that
// needs its own recursive decode (runlists, nested attribute lists,
// INDX entries).
func C(label string, format Formatter, lower, upper Bound) Field {
	return Field{Label: label, Format: format, Lower: lower, Upper: upper}
}

// Unpack decodes data according to fields, threading the
// partially-built Result into each subsequent field's bounds so later
// fields can depend on earlier ones (e.g. a length field gating the
// end of a variable-size content blob).
func Unpack(data []byte, fields []Field) Result {
	result := make(Result, len(fields))
	for _, field := range fields {
		low, lok := field.Lower(result)
		high, hok := field.Upper(result)
		if !lok || !hok {
			result[field.Label] = nil
			continue
		}
		if low < 0 || high < low || high >= len(data) {
			result[field.Label] = nil
			continue
		}
		result[field.Label] = field.Format(data[low : high+1])
	}
	return result
}

func builtin(code string) Formatter {
	switch {
	case code == "s":
		return func(b []byte) any { return string(b) }
	case code == "utf-16":
		return decodeUTF16Name
	case code == "i", code == "2i", code == "4i", code == "8i":
		return func(b []byte) any {
			if len(b) == 0 {
				return nil
			}
			return leUint(b)
		}
	case code == ">i":
		return func(b []byte) any {
			if len(b) == 0 {
				return nil
			}
			return beUint(b)
		}
	case code == "+i":
		return func(b []byte) any {
			if len(b) == 0 {
				return nil
			}
			return signedBytes(reversed(b))
		}
	case code == ">+i":
		return func(b []byte) any {
			if len(b) == 0 {
				return nil
			}
			return signedBytes(b)
		}
	default:
		return func([]byte) any { return nil }
	}
}

func leUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// signedBytes decodes a big-endian two's-complement integer,
// following the NTFS runlist offset-delta convention of sign
// extension from the first bit.
func signedBytes(data []byte) int64 {
	if len(data) == 0 {
		return 0
	}
	if data[0]&0x80 != 0 {
		inverted := make([]byte, len(data))
		for i, d := range data {
			inverted[i] = ^d
		}
		return -signedBytes(inverted) - 1
	}
	return int64(beUint(data))
}

// decodeUTF16Name decodes little-endian UTF-16 text one code unit at
// a time, substituting a NUL rune for anything that fails to decode
// (lone surrogate halves). If the resulting text contains three
// consecutive NUL bytes it is treated as a false-positive match on
// binary data and the field decodes to null. Otherwise, unprintable
// runes are replaced with '#'.
func decodeUTF16Name(b []byte) any {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(b[i:i+2]))
	}

	var sb strings.Builder
	for _, u := range units {
		if utf16.IsSurrogate(rune(u)) {
			sb.WriteRune(0)
			continue
		}
		sb.WriteRune(rune(u))
	}
	text := sb.String()

	if strings.Contains(text, "\x00\x00\x00") {
		return nil
	}
	return printable(text)
}

func printable(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if r == 0 || (!unicode.IsGraphic(r) && !unicode.IsSpace(r)) {
			out = append(out, '#')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
