package discovery

import (
	"errors"
	"testing"

	"github.com/gregLibert/card-explorer/pkg/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindShortFileID(t *testing.T) {
	sfi, err := FindShortFileID(tlv.Hex("6F 1A 84 0E 31 50 41 59 2E 53 59 53 2E 44 44 46 30 31 A5 08 88 01 02 5F 2D 02 65 6E"))
	require.NoError(t, err)
	assert.Equal(t, "02", sfi)

	sfi, err = FindShortFileID(tlv.Hex("6F 05 A5 03 88 01 1E"))
	require.NoError(t, err)
	assert.Equal(t, "1e", sfi)
}

func TestFindShortFileID_Errors(t *testing.T) {
	tests := map[string]struct {
		payload string
		target  error
	}{
		"Missing":   {"6F 04 84 02 31 50", ErrNoShortFileID},
		"Malformed": {"6F 05 A5 03 88 01", tlv.ErrMalformed},
		"Two bytes": {"6F 06 A5 04 88 02 00 02", nil},
		"Zero":      {"6F 05 A5 03 88 01 00", nil},
		"Too large": {"6F 05 A5 03 88 01 1F", nil},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FindShortFileID(tlv.Hex(tc.payload))
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
		})
	}
}

func TestExtractApplicationIDs_Siblings(t *testing.T) {
	var emitted []*tlv.Node
	aids, errs := ExtractApplicationIDs([][]byte{tlv.Hex(siblingRecord)}, func(n *tlv.Node) {
		emitted = append(emitted, n)
	})

	assert.Empty(t, errs)
	assert.Equal(t, []string{"a000000003", "a000000004"}, aids)
	require.Len(t, emitted, 2)
	assert.Equal(t, tlv.Hex("61 07 4F 05 A0 00 00 00 03"), emitted[0].Raw)
	assert.Equal(t, tlv.Hex("61 07 4F 05 A0 00 00 00 04"), emitted[1].Raw)
}

func TestExtractApplicationIDs_RecordOrder(t *testing.T) {
	aids, errs := ExtractApplicationIDs([][]byte{tlv.Hex(mastercardRecord), tlv.Hex(visaRecord)}, nil)

	assert.Empty(t, errs)
	assert.Equal(t, []string{"a000000004", "a000000003"}, aids)
}

func TestExtractApplicationIDs_SkipsBadInput(t *testing.T) {
	records := [][]byte{
		tlv.Hex("70 12 61 10 4F"),
		tlv.Hex("70 05 61 03 50 01 41"),
		tlv.Hex(visaRecord),
	}

	emitted := 0
	aids, errs := ExtractApplicationIDs(records, func(*tlv.Node) { emitted++ })

	assert.Equal(t, []string{"a000000003"}, aids)
	assert.Equal(t, 2, emitted)
	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], tlv.ErrMalformed))
	assert.Contains(t, errs[1].Error(), "without AID")
}

func TestExtractApplicationIDs_NoTemplates(t *testing.T) {
	aids, errs := ExtractApplicationIDs([][]byte{tlv.Hex("70 04 5F 20 01 41")}, nil)
	assert.Empty(t, aids)
	assert.Empty(t, errs)
}
