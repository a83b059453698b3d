package iso7816

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

func TestCommandBuilders(t *testing.T) {
	cls, _ := NewClass(0x00)
	channel2, _ := NewInterindustryClass(false, SMNone, 2)

	tests := []struct {
		name string
		cmd  *CommandAPDU
		want []byte
	}{
		{
			// No Le: the card answers 61XX under T=0.
			name: "Select PSE",
			cmd:  SelectByName(cls, []byte("1PAY.SYS.DDF01")),
			want: tlv.Hex("00 A4 04 00 0E", "31 50 41 59 2E 53 59 53 2E 44 44 46 30 31"),
		},
		{
			name: "Select AID on channel 2",
			cmd:  SelectByName(channel2, tlv.Hex("A0 00 00 00 03")),
			want: tlv.Hex("02 A4 04 00 05 A0 00 00 00 03"),
		},
		{
			name: "Read record 1 of SFI 1",
			cmd:  ReadRecord(cls, 1, 1),
			want: tlv.Hex("00 B2 01 0C 00"),
		},
		{
			name: "Read record 5 of the current EF",
			cmd:  ReadRecord(cls, 0, 5),
			want: tlv.Hex("00 B2 05 04 00"),
		},
		{
			name: "Read record 8 of SFI 30",
			cmd:  ReadRecord(cls, 30, 8),
			want: tlv.Hex("00 B2 08 F4 00"),
		},
		{
			name: "Get response",
			cmd:  GetResponse(cls, 0x1A),
			want: tlv.Hex("00 C0 00 00 1A"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encoding mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParameterNames(t *testing.T) {
	got := []string{
		SelectByDFName.String(),
		SelectionMethod(0x07).String(),
		NextOccurrence.String(),
		ReturnFCP.String(),
		SelectionControl(0x10).String(),
		RefByNum_ReadAllFromP1.String(),
		ReadRecordMode(0x07).String(),
	}
	want := []string{
		"Select by DF Name (AID)",
		"Unknown Method (0x07)",
		"Next",
		"Return FCP",
		"Unknown Control (0x10)",
		"Ref Num: Read All from P1",
		"Unknown Mode (0x7)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeCommand(t *testing.T) {
	describe := func(raw string) []string {
		cmd, err := ParseCommandAPDU(tlv.Hex(raw))
		if err != nil {
			t.Fatalf("ParseCommandAPDU(%s) failed: %v", raw, err)
		}
		var sb strings.Builder
		describeCommand(&sb, cmd)
		return strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "Select next FCP by file ID",
			raw:  "00 A4 00 06 02 3F 00",
			want: []string{
				"    + Method:  00 -> Select by File ID",
				"    + Control: 06 -> Next | Return FCP",
				`    + Data:    3F00 ("?.")`,
			},
		},
		{
			name: "Read next occurrence by identifier",
			raw:  "00 B2 AA 52 00",
			want: []string{
				"    + Target:  SFI 0A (10)",
				"    + P1:      AA -> Record Identifier AA",
				"    + Mode:    02 -> Ref ID: Next Occurrence",
			},
		},
		{
			name: "Read record of the current EF",
			raw:  "00 B2 03 04 00",
			want: []string{
				"    + Target:  Current EF",
				"    + P1:      03 -> Record Number 3",
				"    + Mode:    04 -> Ref Num: Read Record P1",
			},
		},
		{
			name: "Reader pseudo-APDU",
			raw:  "FF CA 00 00 00",
			want: []string{"    + Class:   reader (FF)"},
		},
		{
			name: "Other commands are not decoded",
			raw:  "80 A8 00 00 02 83 00 00",
			want: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, describe(tt.raw)); diff != "" {
				t.Errorf("describeCommand mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
