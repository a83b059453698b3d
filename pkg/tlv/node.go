package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Node is one decoded BER-TLV element.
//
// A primitive node carries its payload in Value and has no Children.
// A constructed node (bit b6 of the first tag byte) carries its decoded
// elements in Children and has a nil Value. Nodes are not modified after
// Decode returns them.
type Node struct {
	// Tag is the tag bytes read big-endian, so '9F38' is 0x9F38.
	Tag uint32

	Constructed bool

	// Length is the decoded length field.
	Length int

	Value    []byte
	Children []*Node

	// Raw is the complete encoding of the element (tag, length and value).
	// It aliases the buffer given to Decode.
	Raw []byte
}

// IsConstructed reports whether the node holds nested elements.
func (n *Node) IsConstructed() bool {
	return n.Constructed
}

// TagHex returns the tag in the usual uppercase notation ("9F38").
func (n *Node) TagHex() string {
	return FormatTag(n.Tag)
}

// HexValue returns the lowercase hex of a primitive value, as used for
// AIDs and short file identifiers. Constructed nodes return "".
func (n *Node) HexValue() string {
	if n.Constructed {
		return ""
	}
	return hex.EncodeToString(n.Value)
}

func (n *Node) String() string {
	if n.Constructed {
		return fmt.Sprintf("%s [%d children]", n.TagHex(), len(n.Children))
	}
	return fmt.Sprintf("%s %s", n.TagHex(), strings.ToUpper(n.HexValue()))
}

// FormatTag renders a numeric tag with an even number of hex digits.
func FormatTag(tag uint32) string {
	s := fmt.Sprintf("%X", tag)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}
