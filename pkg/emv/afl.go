package emv

import (
	"fmt"

	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// APPLICATION FILE LOCATOR (Tag '94', EMV Book 3 section 10.2):
// A list of 4-byte entries returned by GET PROCESSING OPTIONS.
//   - Byte 1: b8-b4 = SFI, b3-b1 = 000.
//   - Byte 2: first record number to read (never 0).
//   - Byte 3: last record number (>= first).
//   - Byte 4: number of records, from the first, used in offline data authentication.
//
// The GPO response is either Format 1 (Tag '80': AIP on 2 bytes followed by the AFL)
// or Format 2 (Tag '77' template carrying '82' and '94').

// AFLEntry is one file range announced by the card.
type AFLEntry struct {
	SFI                byte
	FirstRecord        byte
	LastRecord         byte
	OfflineAuthRecords byte
}

// Records lists the record numbers covered by the entry.
func (e AFLEntry) Records() []byte {
	var out []byte
	for r := int(e.FirstRecord); r <= int(e.LastRecord); r++ {
		out = append(out, byte(r))
	}
	return out
}

func (e AFLEntry) String() string {
	return fmt.Sprintf("SFI %d records %d-%d", e.SFI, e.FirstRecord, e.LastRecord)
}

// ParseAFL decodes the value of an Application File Locator.
func ParseAFL(data []byte) ([]AFLEntry, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("AFL length %d is not a multiple of 4", len(data))
	}

	entries := make([]AFLEntry, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		e := AFLEntry{
			SFI:                data[i] >> 3,
			FirstRecord:        data[i+1],
			LastRecord:         data[i+2],
			OfflineAuthRecords: data[i+3],
		}
		if e.SFI == 0 || e.SFI > 30 {
			return nil, fmt.Errorf("AFL entry %d: invalid SFI %d", i/4, e.SFI)
		}
		if e.FirstRecord == 0 || e.LastRecord < e.FirstRecord {
			return nil, fmt.Errorf("AFL entry %d: invalid record range %d-%d", i/4, e.FirstRecord, e.LastRecord)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FileLocatorFromGPO extracts the AFL from a GET PROCESSING OPTIONS response payload.
func FileLocatorFromGPO(payload []byte) ([]AFLEntry, error) {
	root, err := tlv.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("GPO response: %w", err)
	}

	switch root.Tag {
	case TagResponseFormat1:
		if len(root.Value) < 2 {
			return nil, fmt.Errorf("format 1 response too short: %d bytes", len(root.Value))
		}
		return ParseAFL(root.Value[2:])
	case TagResponseFormat2:
		afl := tlv.FindFirst(root, TagApplicationFileLoc)
		if afl == nil {
			return nil, fmt.Errorf("format 2 response carries no AFL (Tag 94)")
		}
		return ParseAFL(afl.Value)
	default:
		return nil, fmt.Errorf("unexpected GPO response template %s", root.TagHex())
	}
}
