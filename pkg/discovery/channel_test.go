package discovery

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gregLibert/card-explorer/pkg/iso7816"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

var pseHex = strings.ToUpper(hex.EncodeToString([]byte(PSEName)))

// fakeCard answers from a script. Keys are:
//
//	"SELECT <NAME HEX>"
//	"<SELECTED NAME HEX> READ <SFI> <RECORD>"
//	"<SELECTED NAME HEX> ISSUE <COMMAND HEX>"
//
// Values are "<DATA HEX> <SW>" strings, or just "<SW>". Unscripted commands
// answer '6A83' for reads and '6A82' otherwise.
type fakeCard struct {
	script map[string]string
	errs   map[string]error

	// before runs ahead of each answer; it may cancel a context.
	before func(key string)

	mu       sync.Mutex
	selected string
	log      []string

	inFlight int32
	overlap  int32
}

func newFakeCard(script map[string]string) *fakeCard {
	return &fakeCard{script: script, errs: map[string]error{}}
}

func (c *fakeCard) answer(ctx context.Context, key string, fallback string, selecting string) (*iso7816.Response, error) {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		atomic.StoreInt32(&c.overlap, 1)
	}
	defer atomic.AddInt32(&c.inFlight, -1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.log = append(c.log, key)
	c.mu.Unlock()

	if c.before != nil {
		c.before(key)
	}
	if err, ok := c.errs[key]; ok {
		return nil, err
	}

	value, ok := c.script[key]
	if !ok {
		value = fallback
	}
	fields := strings.Fields(value)
	sw := tlv.Hex(fields[len(fields)-1])
	data := tlv.Hex(fields[:len(fields)-1]...)

	resp := &iso7816.Response{
		Command: []byte(key),
		Data:    data,
		Status:  iso7816.StatusWord(uint16(sw[0])<<8 | uint16(sw[1])),
	}
	if selecting != "" && resp.IsOK() {
		c.mu.Lock()
		c.selected = selecting
		c.mu.Unlock()
	}
	return resp, nil
}

func (c *fakeCard) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *fakeCard) SelectFile(ctx context.Context, name []byte) (*iso7816.Response, error) {
	h := strings.ToUpper(hex.EncodeToString(name))
	return c.answer(ctx, "SELECT "+h, "6A82", h)
}

func (c *fakeCard) ReadRecord(ctx context.Context, sfi byte, record byte) (*iso7816.Response, error) {
	return c.answer(ctx, fmt.Sprintf("%s READ %d %d", c.current(), sfi, record), "6A83", "")
}

func (c *fakeCard) IssueCommand(ctx context.Context, raw []byte) (*iso7816.Response, error) {
	return c.answer(ctx, fmt.Sprintf("%s ISSUE %X", c.current(), raw), "6D00", "")
}

func (c *fakeCard) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// pseRecord is the key of a READ RECORD in the PSE directory.
func pseRecord(sfi, n int) string {
	return fmt.Sprintf("%s READ %d %d", pseHex, sfi, n)
}

func appKey(aid string, rest string) string {
	return strings.ToUpper(aid) + " " + rest
}
