package snapshot

import (
	"strconv"
	"strings"
)

var intReprs = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
}

// Repr is the canonical form of an item's representation annotations.
// Equivalent annotation sets normalize to equal values no matter how they
// were split: ["C", "u8"] and ["C, u8"] are the same Repr.
type Repr struct {
	C           bool
	Transparent bool
	// Int is the primitive integer repr of an enum, empty if none.
	Int string
	// Packed is the packing in bytes, 0 if not packed.
	Packed int
	// Align is the minimum alignment in bytes, 0 if unspecified.
	Align int
	// Unknown keeps entries that could not be parsed.
	Unknown []string
}

// ParseRepr normalizes raw representation annotations.
func ParseRepr(annotations []string) Repr {
	var r Repr
	for _, a := range annotations {
		a = strings.TrimSpace(a)
		a = strings.TrimPrefix(a, "#[")
		a = strings.TrimSuffix(a, "]")
		if strings.HasPrefix(a, "repr(") && strings.HasSuffix(a, ")") {
			a = a[len("repr(") : len(a)-1]
		}
		for _, entry := range splitTopLevel(a) {
			r.add(entry)
		}
	}
	return r
}

func (r *Repr) add(entry string) {
	entry = strings.TrimSpace(entry)
	switch {
	case entry == "":
	case entry == "Rust":
	case entry == "C":
		r.C = true
	case entry == "transparent":
		r.Transparent = true
	case intReprs[entry]:
		r.Int = entry
	case entry == "packed":
		r.setPacked(1)
	case strings.HasPrefix(entry, "packed(") && strings.HasSuffix(entry, ")"):
		if n, ok := parseBytes(entry[len("packed(") : len(entry)-1]); ok {
			r.setPacked(n)
		} else {
			r.Unknown = append(r.Unknown, entry)
		}
	case strings.HasPrefix(entry, "align(") && strings.HasSuffix(entry, ")"):
		if n, ok := parseBytes(entry[len("align(") : len(entry)-1]); ok {
			if n > r.Align {
				r.Align = n
			}
		} else {
			r.Unknown = append(r.Unknown, entry)
		}
	default:
		r.Unknown = append(r.Unknown, entry)
	}
}

func (r *Repr) setPacked(n int) {
	if r.Packed == 0 || n < r.Packed {
		r.Packed = n
	}
}

// String renders the canonical annotation list, e.g. "C, u8, align(8)".
func (r Repr) String() string {
	var parts []string
	if r.C {
		parts = append(parts, "C")
	}
	if r.Transparent {
		parts = append(parts, "transparent")
	}
	if r.Int != "" {
		parts = append(parts, r.Int)
	}
	if r.Packed > 0 {
		parts = append(parts, "packed("+strconv.Itoa(r.Packed)+")")
	}
	if r.Align > 0 {
		parts = append(parts, "align("+strconv.Itoa(r.Align)+")")
	}
	parts = append(parts, r.Unknown...)
	if len(parts) == 0 {
		return "Rust"
	}
	return strings.Join(parts, ", ")
}

func parseBytes(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// splitTopLevel splits on commas that are not inside parentheses.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
