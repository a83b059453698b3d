package emv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

func TestTagName(t *testing.T) {
	tests := []struct {
		tag    uint32
		want   string
		wantOK bool
	}{
		{0x4F, "APPLICATION_IDENTIFIER", true},
		{0x88, "SFI", true},
		{0x61, "APPLICATION_TEMPLATE", true},
		{0x5F20, "CARDHOLDER_NAME", true},
		{0xBF0C, "FCI_ISSUER_DISCRETIONARY_DATA", true},
		{0xDF7F, "", false},
	}

	for _, tt := range tests {
		got, ok := TagName(tt.tag)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("TagName(%X) = (%q, %v), want (%q, %v)", tt.tag, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDescribe(t *testing.T) {
	root, err := tlv.Decode(tlv.Hex(
		"6F 08",
		"A5 06",
		"88 01 01",
		"DF7F 00",
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	got := strings.Split(Describe(root), "\n")
	want := []string{
		"6F (FCI_TEMPLATE)",
		"\tA5 (FCI_PROPRIETARY_TEMPLATE)",
		"\t\t88 (SFI) . 01",
		"\t\tDF7F  ",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}
