package tlv

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/moov-io/bertlv"
)

var unknownType = reflect.TypeOf([]bertlv.TLV(nil))

// FieldLines lists the populated fields of a struct mapped with `tlv` tags,
// one "    - prefix.Field (tag): value" line each. Byte fields honour a `fmt`
// tag ("ascii" or "int"); a []bertlv.TLV field lists the tags the mapping
// did not know. Nested templates are not followed: callers describe them
// under their own prefix. A nil pointer yields no lines.
func FieldLines(prefix string, s any) []string {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	var lines []string
	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() || len(f.Index) > 1 {
			continue
		}
		field := v.FieldByIndex(f.Index)
		switch {
		case field.Type() == unknownType:
			for _, t := range field.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %X", prefix, t.Tag, t.Value))
			}

		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
			if field.Len() == 0 {
				continue
			}
			name := f.Name
			if tag := f.Tag.Get("tlv"); tag != "" {
				name += " (" + tag + ")"
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, name, formatValue(field.Bytes(), f.Tag.Get("fmt"))))
		}
	}
	return lines
}

func formatValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, Printable(data))
	case "int":
		return fmt.Sprintf("%X (Dec: %s)", data, new(big.Int).SetBytes(data))
	default:
		return fmt.Sprintf("%X", data)
	}
}

// Printable replaces every byte outside printable ASCII with '.'.
func Printable(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b < 0x20 || b > 0x7E {
			b = '.'
		}
		out[i] = b
	}
	return string(out)
}
