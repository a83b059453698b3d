package tlv

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_Primitive(t *testing.T) {
	node, err := Decode(Hex("50 03 41 42 00"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if node.Tag != 0x50 {
		t.Errorf("Tag = %X, want 50", node.Tag)
	}
	if node.IsConstructed() {
		t.Error("Tag 50 must be primitive")
	}
	if node.Length != 3 {
		t.Errorf("Length = %d, want 3", node.Length)
	}
	if diff := cmp.Diff([]byte{0x41, 0x42, 0x00}, node.Value); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}
	if node.Children != nil {
		t.Errorf("Primitive node must not have children, got %d", len(node.Children))
	}
}

func TestDecode_Constructed(t *testing.T) {
	node, err := Decode(Hex(
		"70 06",
		"50 01 41",
		"5A 01 42",
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !node.IsConstructed() {
		t.Fatal("Tag 70 must be constructed")
	}
	if node.Value != nil {
		t.Errorf("Constructed node must not carry a value, got %X", node.Value)
	}

	var got []string
	for _, c := range node.Children {
		got = append(got, c.String())
	}
	want := []string{"50 41", "5A 42"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Children mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Forms(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		wantTag   uint32
		wantValue []byte
		wantRaw   []byte
	}{
		{
			name:      "Two-byte tag",
			input:     Hex("9F38 03 9F6604"),
			wantTag:   0x9F38,
			wantValue: Hex("9F6604"),
			wantRaw:   Hex("9F38 03 9F6604"),
		},
		{
			name:      "Three-byte tag",
			input:     Hex("DF8101 01 AA"),
			wantTag:   0xDF8101,
			wantValue: Hex("AA"),
			wantRaw:   Hex("DF8101 01 AA"),
		},
		{
			name:      "Long form length, one byte",
			input:     Hex("5A 81 03 010203"),
			wantTag:   0x5A,
			wantValue: Hex("010203"),
			wantRaw:   Hex("5A 81 03 010203"),
		},
		{
			name:      "Long form length, two bytes",
			input:     Hex("5A 82 0002 AABB"),
			wantTag:   0x5A,
			wantValue: Hex("AABB"),
			wantRaw:   Hex("5A 82 0002 AABB"),
		},
		{
			name:      "Trailing bytes are not inspected",
			input:     Hex("50 01 41 FFFF"),
			wantTag:   0x50,
			wantValue: Hex("41"),
			wantRaw:   Hex("50 01 41"),
		},
		{
			name:      "Zero length",
			input:     Hex("50 00"),
			wantTag:   0x50,
			wantValue: []byte{},
			wantRaw:   Hex("50 00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if node.Tag != tt.wantTag {
				t.Errorf("Tag = %X, want %X", node.Tag, tt.wantTag)
			}
			if !bytes.Equal(node.Value, tt.wantValue) {
				t.Errorf("Value = %X, want %X", node.Value, tt.wantValue)
			}
			if !bytes.Equal(node.Raw, tt.wantRaw) {
				t.Errorf("Raw = %X, want %X", node.Raw, tt.wantRaw)
			}
		})
	}
}

func TestDecode_SkipsPadding(t *testing.T) {
	node, err := Decode(Hex("70 06 00 50 01 41 00 00"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(node.Children) != 1 {
		t.Fatalf("Expected 1 child, got %d", len(node.Children))
	}
	if node.Children[0].Tag != 0x50 {
		t.Errorf("Child tag = %X, want 50", node.Children[0].Tag)
	}
}

func TestDecode_Nested(t *testing.T) {
	node, err := Decode(Hex(
		"6F 0E",
		"84 02 3150",
		"A5 08",
		"88 01 02",
		"BF0C 02 5000",
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	a5 := node.Children[1]
	if a5.Tag != 0xA5 || !a5.IsConstructed() {
		t.Fatalf("Second child = %s, want constructed A5", a5)
	}
	if len(a5.Children) != 2 {
		t.Fatalf("A5 children = %d, want 2", len(a5.Children))
	}
	bf0c := a5.Children[1]
	if bf0c.Tag != 0xBF0C || !bf0c.IsConstructed() {
		t.Fatalf("A5 second child = %s, want constructed BF0C", bf0c)
	}
	if len(bf0c.Children) != 1 || bf0c.Children[0].Tag != 0x50 {
		t.Errorf("BF0C children mismatch: %v", bf0c.Children)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"Empty buffer", nil},
		{"Declared length exceeds buffer", Hex("50 05 41")},
		{"Missing length", Hex("50")},
		{"Truncated multi-byte tag", Hex("9F")},
		{"Truncated multi-byte tag continuation", Hex("9F 81")},
		{"Tag longer than four bytes", Hex("DF 81 82 83 04 01 00")},
		{"Too many length bytes", Hex("50 85 0000000001 AA")},
		{"Truncated long form length", Hex("50 82 01")},
		{"Four byte length beyond buffer", Hex("50 84 FFFFFFFF 01020304")},
		{"Four byte length wrapping a 32-bit int", Hex("70 0A 5A 84 FFFFFFFF 01020304")},
		{"Four byte length just past parent", Hex("70 09 5A 84 00000004 010203")},
		{"Indefinite length", Hex("70 80 50 01 41 00 00")},
		{"Child overflows parent", Hex("70 03 50 05 414243 4445")},
		{"Child header cut by parent", Hex("70 01 50 01 41")},
		{"Constructed with dangling tag", Hex("70 04 50 01 41 5A")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Decode(tt.input)
			if err == nil {
				t.Fatalf("Expected error, got node %s", node)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("errors.Is(err, ErrMalformed) = false for %v", err)
			}
			var mErr *MalformedTLVError
			if !errors.As(err, &mErr) {
				t.Errorf("Expected *MalformedTLVError, got %T", err)
			}
		})
	}
}

// nest wraps inner in depth constructed 'A1' elements.
func nest(inner []byte, depth int) []byte {
	out := inner
	for i := 0; i < depth; i++ {
		out = append(append([]byte{0xA1}, encodeLength(len(out))...), out...)
	}
	return out
}

func encodeLength(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n <= 0xFF:
		return []byte{0x81, byte(n)}
	default:
		return []byte{0x82, byte(n >> 8), byte(n)}
	}
}

func TestDecode_DepthBound(t *testing.T) {
	leaf := Hex("50 01 41")

	node, err := Decode(nest(leaf, MaxDepth))
	if err != nil {
		t.Fatalf("Decode at MaxDepth failed: %v", err)
	}
	if got := FindFirst(node, 0x50); got == nil || got.HexValue() != "41" {
		t.Errorf("Leaf not reachable at MaxDepth, got %v", got)
	}

	_, err = Decode(nest(leaf, MaxDepth+1))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed beyond MaxDepth, got %v", err)
	}
}
