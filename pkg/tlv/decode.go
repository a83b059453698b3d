package tlv

import (
	"errors"
	"fmt"

	"github.com/gregLibert/card-explorer/pkg/bits"
)

// BER-TLV ENCODING (ISO/IEC 8825-1 as profiled by ISO/IEC 7816-4 and EMV Book 3 Annex B):
//
// TAG:
//   - b8-b7: class, b6: constructed (1) or primitive (0).
//   - b5-b1 = 11111: the tag number continues in the following bytes,
//     each of which has b8 set while more bytes follow.
//
// LENGTH:
//   - Short form: one byte 0x00-0x7F.
//   - Long form: 0x81-0x84, followed by 1 to 4 length bytes (big-endian).
//     0x80 (indefinite form) is not allowed in card data.
//
// Bytes '00' found where a tag is expected inside a constructed value are
// padding and are skipped.

const (
	// MaxDepth bounds the nesting of constructed elements accepted by Decode.
	MaxDepth = 64

	maxTagBytes    = 4
	maxLengthBytes = 4
)

// ErrMalformed is matched by every MalformedTLVError.
var ErrMalformed = errors.New("malformed BER-TLV")

// MalformedTLVError reports a structural violation found while decoding.
type MalformedTLVError struct {
	Offset int
	Reason string
}

func (e *MalformedTLVError) Error() string {
	return fmt.Sprintf("malformed BER-TLV at offset %d: %s", e.Offset, e.Reason)
}

func (e *MalformedTLVError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(offset int, format string, args ...any) error {
	return &MalformedTLVError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Decode decodes the single BER-TLV element at the start of data.
// Bytes following that element are not inspected. Values of constructed
// elements are decoded completely, and must be made of whole elements.
func Decode(data []byte) (*Node, error) {
	root, pos, err := readHeader(data, 0, len(data))
	if err != nil {
		return nil, err
	}
	end := pos + root.Length
	root.Raw = data[:end]

	if !root.Constructed {
		root.Value = data[pos:end]
		return root, nil
	}

	// Explicit work list: card data is untrusted and may nest arbitrarily.
	type frame struct {
		node *Node
		end  int
	}
	stack := []frame{{node: root, end: end}}
	root.Children = []*Node{}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if pos >= top.end {
			stack = stack[:len(stack)-1]
			continue
		}

		if data[pos] == 0x00 {
			pos++
			continue
		}

		start := pos
		child, valuePos, err := readHeader(data, pos, top.end)
		if err != nil {
			return nil, err
		}
		childEnd := valuePos + child.Length
		child.Raw = data[start:childEnd]
		top.node.Children = append(top.node.Children, child)

		if !child.Constructed {
			child.Value = data[valuePos:childEnd]
			pos = childEnd
			continue
		}

		if len(stack) >= MaxDepth {
			return nil, malformed(start, "nesting deeper than %d", MaxDepth)
		}
		child.Children = []*Node{}
		stack = append(stack, frame{node: child, end: childEnd})
		pos = valuePos
	}

	return root, nil
}

// readHeader reads the tag and length fields at pos. limit is the end of
// the enclosing region; the declared value must fit inside it.
// It returns the node (without value) and the offset of the value.
func readHeader(data []byte, pos, limit int) (*Node, int, error) {
	if pos >= limit {
		return nil, pos, malformed(pos, "expected tag, buffer is empty")
	}

	first := data[pos]
	n := &Node{
		Tag:         uint32(first),
		Constructed: bits.IsSet(first, 6),
	}
	pos++

	if first&bits.Mask(5, 1) == bits.Mask(5, 1) {
		for count := 1; ; count++ {
			if pos >= limit {
				return nil, pos, malformed(pos, "truncated multi-byte tag")
			}
			if count >= maxTagBytes {
				return nil, pos, malformed(pos, "tag longer than %d bytes", maxTagBytes)
			}
			b := data[pos]
			n.Tag = n.Tag<<8 | uint32(b)
			pos++
			if !bits.IsSet(b, 8) {
				break
			}
		}
	}

	if pos >= limit {
		return nil, pos, malformed(pos, "missing length for tag %s", FormatTag(n.Tag))
	}

	lb := data[pos]
	pos++
	switch {
	case !bits.IsSet(lb, 8):
		n.Length = int(lb)
	case lb == 0x80:
		return nil, pos - 1, malformed(pos-1, "indefinite length is not supported")
	default:
		count := int(lb & bits.Mask(7, 1))
		if count > maxLengthBytes {
			return nil, pos - 1, malformed(pos-1, "length uses %d bytes, at most %d allowed", count, maxLengthBytes)
		}
		if pos+count > limit {
			return nil, pos, malformed(pos, "length needs %d bytes, %d remain", count, limit-pos)
		}
		// Accumulated unsigned so four length bytes cannot wrap a 32-bit int.
		var length uint64
		for i := 0; i < count; i++ {
			length = length<<8 | uint64(data[pos+i])
		}
		pos += count
		if length > uint64(limit-pos) {
			return nil, pos, malformed(pos, "tag %s declares %d bytes, %d remain", FormatTag(n.Tag), length, limit-pos)
		}
		n.Length = int(length)
	}

	if n.Length > limit-pos {
		return nil, pos, malformed(pos, "tag %s declares %d bytes, %d remain", FormatTag(n.Tag), n.Length, limit-pos)
	}

	return n, pos, nil
}
