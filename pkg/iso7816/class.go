package iso7816

import (
	"fmt"

	"github.com/gregLibert/card-explorer/pkg/bits"
)

// CLASS BYTE (CLA), ISO/IEC 7816-4 section 5.4.1:
//
//	0 0 x x x x x x   first interindustry:   b5 chaining, b4-b3 SM, b2-b1 channel 0..3
//	0 1 x x x x x x   further interindustry: b6 SM, b5 chaining, b4-b1 channel 4..19
//	1 x x x x x x x   proprietary (EMV uses '80' for GET PROCESSING OPTIONS)
//	1 1 1 1 1 1 1 1   invalid for cards; PC/SC uses it for reader pseudo-APDUs
//
// Channels 4..19 are stored with an offset of 4.

// SecureMessaging is the secure messaging indication of an interindustry class.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0 // no SM, or no indication
	SMProprietary  SecureMessaging = 1 // first interindustry only
	SMHeaderNoProc SecureMessaging = 2 // ISO SM, header not processed
	SMHeaderAuth   SecureMessaging = 3 // ISO SM, header authenticated; first interindustry only
)

var smNames = map[SecureMessaging]string{
	SMNone:         "no SM",
	SMProprietary:  "proprietary SM",
	SMHeaderNoProc: "ISO SM",
	SMHeaderAuth:   "ISO SM, authenticated header",
}

func (sm SecureMessaging) String() string {
	if name, ok := smNames[sm]; ok {
		return name
	}
	return fmt.Sprintf("SecureMessaging(%d)", int(sm))
}

// readerClass is the CLA of PC/SC reader pseudo-APDUs (GET DATA 'FF CA', LOAD KEYS...).
const readerClass = 0xFF

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsReader        bool // CLA 'FF': addressed to the reader, not the card
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // 0..19
}

// NewClass decodes a CLA byte. It never fails for a byte read off the wire;
// the error is kept for callers building classes from configuration.
func NewClass(cla byte) (Class, error) {
	c := Class{Raw: cla}

	switch {
	case cla == readerClass:
		c.IsProprietary = true
		c.IsReader = true
	case bits.IsSet(cla, 8):
		c.IsProprietary = true
	case bits.IsSet(cla, 7):
		c.IsChained = bits.IsSet(cla, 5)
		c.Channel = 4 + bits.GetRange(cla, 4, 1)
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNoProc
		}
	default:
		c.IsChained = bits.IsSet(cla, 5)
		c.Channel = bits.GetRange(cla, 2, 1)
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
	}
	return c, nil
}

// NewInterindustryClass builds the class for a logical channel, using the
// first interindustry encoding for channels 0..3 and the further one above.
func NewInterindustryClass(isChained bool, sm SecureMessaging, channel uint8) (Class, error) {
	if channel > 19 {
		return Class{}, fmt.Errorf("channel %d out of range (max 19)", channel)
	}
	if channel >= 4 && (sm == SMProprietary || sm == SMHeaderAuth) {
		return Class{}, fmt.Errorf("%s cannot be indicated on channel %d", sm, channel)
	}

	c := Class{IsChained: isChained, SecureMessaging: sm, Channel: channel}
	raw, err := c.Encode()
	if err != nil {
		return Class{}, err
	}
	c.Raw = raw
	return c, nil
}

// Encode returns the CLA byte. Proprietary classes are returned unchanged.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var cla byte
	if c.IsChained {
		cla = bits.Set(cla, 5)
	}
	if c.Channel < 4 {
		return cla | byte(c.SecureMessaging)<<2 | c.Channel, nil
	}

	cla = bits.Set(cla, 7)
	if c.SecureMessaging != SMNone {
		cla = bits.Set(cla, 6)
	}
	return cla | (c.Channel - 4), nil
}

// followUp is the class of a GET RESPONSE completing a command sent with c:
// same logical channel, no chaining. Proprietary and reader classes are
// completed with an interindustry GET RESPONSE on the basic channel.
func (c Class) followUp() Class {
	if c.IsProprietary {
		next, _ := NewInterindustryClass(false, SMNone, 0)
		return next
	}
	next, err := NewInterindustryClass(false, c.SecureMessaging, c.Channel)
	if err != nil {
		next, _ = NewInterindustryClass(false, SMNone, c.Channel)
	}
	return next
}

func (c Class) String() string {
	switch {
	case c.IsReader:
		return "reader (FF)"
	case c.IsProprietary:
		return fmt.Sprintf("proprietary (%02X)", c.Raw)
	}
	s := fmt.Sprintf("channel %d, %s", c.Channel, c.SecureMessaging)
	if c.IsChained {
		s += ", chained"
	}
	return s
}
