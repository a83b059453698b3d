package discovery

import (
	"encoding/hex"
	"fmt"

	"github.com/gregLibert/card-explorer/pkg/emv"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// FindShortFileID decodes a PSE SELECT payload and returns the value of
// the first Tag '88' as lowercase hex ("02").
func FindShortFileID(payload []byte) (string, error) {
	root, err := tlv.Decode(payload)
	if err != nil {
		return "", err
	}

	n := tlv.FindFirst(root, emv.TagSFI)
	if n == nil || n.IsConstructed() {
		return "", ErrNoShortFileID
	}
	if len(n.Value) != 1 {
		return "", fmt.Errorf("SFI must be 1 byte, got %X", n.Value)
	}
	if n.Value[0] == 0 || n.Value[0] > 30 {
		return "", fmt.Errorf("SFI %d out of range 1-30", n.Value[0])
	}
	return hex.EncodeToString(n.Value), nil
}

// ExtractApplicationIDs collects the AIDs of every Application Template
// (Tag '61') found in the given record payloads, in record order then tree
// order. emit, if not nil, is called once per template as it is found,
// including templates that carry no AID.
//
// A record that does not decode, or a template without Tag '4F', is
// skipped and reported in the returned errors.
func ExtractApplicationIDs(records [][]byte, emit func(template *tlv.Node)) ([]string, []error) {
	var (
		aids []string
		errs []error
	)

	for i, payload := range records {
		root, err := tlv.Decode(payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("directory record %d: %w", i, err))
			continue
		}

		for _, template := range tlv.FindAll(root, emv.TagApplicationTemplate) {
			if emit != nil {
				emit(template)
			}

			aid := tlv.FindFirst(template, emv.TagApplicationIdentifier)
			if aid == nil || aid.IsConstructed() || len(aid.Value) == 0 {
				errs = append(errs, fmt.Errorf("directory record %d: application template without AID", i))
				continue
			}
			aids = append(aids, aid.HexValue())
		}
	}

	return aids, errs
}
