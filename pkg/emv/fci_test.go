package emv

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

const (
	pseFCI = "6F 1A 84 0E 315041592E5359532E4444463031 A5 08 88 01 02 5F2D 02 656E"

	visaFCI = "6F 2A" +
		" 84 07 A0000000031010" +
		" A5 1F" +
		" 50 04 56495341" + // "VISA"
		" 87 01 01" +
		" 9F12 0B 5649534120435245444954" + // "VISA CREDIT"
		" 9F11 01 01" +
		" 99 02 AABB"
)

func TestParseFCI(t *testing.T) {
	type fields struct {
		DFName, SFI, Language, Label, Priority string
	}

	tests := []struct {
		name    string
		data    []byte
		want    fields
		wantErr bool
	}{
		{
			name: "PSE",
			data: tlv.Hex(pseFCI),
			want: fields{DFName: "1PAY.SYS.DDF01", SFI: "02", Language: "en"},
		},
		{
			name: "Application",
			data: tlv.Hex(visaFCI),
			want: fields{DFName: ".......", Label: "VISA", Priority: "01"},
		},
		{
			name: "Without 6F wrapper",
			data: tlv.Hex("84 0E 325041592E5359532E4444463031 A5 03 88 01 01"),
			want: fields{DFName: "2PAY.SYS.DDF01", SFI: "01"},
		},
		{name: "Empty", data: nil, wantErr: true},
		{name: "Truncated", data: tlv.Hex("6F 05 84"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fci, err := ParseFCI(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFCI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			p := fci.ProprietaryTemplate
			got := fields{
				DFName:   tlv.Printable(fci.DFName),
				SFI:      hexString(p.SFI),
				Language: string(p.LanguagePreference),
				Label:    string(p.ApplicationLabel),
				Priority: hexString(p.ApplicationPriorityIndicator),
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFCI() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFCI_Name(t *testing.T) {
	tests := map[string]string{
		visaFCI: "VISA CREDIT",
		pseFCI:  "1PAY.SYS.DDF01",
		"6F 0F 84 07 A0000000041010 A5 04 50 02 4D43": "MC",
	}
	for data, want := range tests {
		fci, err := ParseFCI(tlv.Hex(data))
		if err != nil {
			t.Fatalf("ParseFCI(%s): %v", data, err)
		}
		if got := fci.Name(); got != want {
			t.Errorf("Name() = %q, want %q", got, want)
		}
	}
}

func TestFCI_Describe(t *testing.T) {
	fci, err := ParseFCI(tlv.Hex(visaFCI))
	if err != nil {
		t.Fatalf("ParseFCI: %v", err)
	}

	want := []string{
		"=== EMV FCI TEMPLATE ===",
		`    - FCI.DFName (84): A0000000031010 (".......")`,
		`    - Proprietary.ApplicationLabel (50): 56495341 ("VISA")`,
		`    - Proprietary.ApplicationPriorityIndicator (87): 01 (Dec: 1)`,
		`    - Proprietary.IssuerCodeTableIndex (9F11): 01 (Dec: 1)`,
		`    - Proprietary.ApplicationPreferredName (9F12): 5649534120435245444954 ("VISA CREDIT")`,
		`    - Proprietary.Unknown Tag 99: AABB`,
	}
	if diff := cmp.Diff(want, strings.Split(fci.Describe(), "\n")); diff != "" {
		t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
	}
}

func TestFCI_DescribeDiscretionaryData(t *testing.T) {
	data := tlv.Hex(
		"6F 1F",
		"84 0E 315041592E5359532E4444463031",
		"A5 0D",
		"BF0C 0A",
		"5F55 02 4652", // "FR"
		"9F4D 02 0B0A",
	)
	fci, err := ParseFCI(data)
	if err != nil {
		t.Fatalf("ParseFCI: %v", err)
	}

	want := []string{
		"=== EMV FCI TEMPLATE ===",
		`    - FCI.DFName (84): 315041592E5359532E4444463031 ("1PAY.SYS.DDF01")`,
		`    - Discretionary.LogEntry (9F4D): 0B0A`,
		`    - Discretionary.IssuerCountryCodeAlpha2 (5F55): 4652 ("FR")`,
	}
	if diff := cmp.Diff(want, strings.Split(fci.Describe(), "\n")); diff != "" {
		t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
	}
}

func hexString(b []byte) string {
	return fmt.Sprintf("%X", b)
}
