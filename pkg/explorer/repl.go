package explorer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gregLibert/card-explorer/pkg/emv"
)

// listReaders is the line that prints the readers holding a card.
const listReaders = "@?"

// ReadCommands sends every line of r to a card and writes the decoded
// response to w. A line is a hex C-APDU, optionally prefixed by
// "@part-of-reader-name " to pick the card; "@?" lists the connected
// readers. It returns at the end of r or once ctx is done.
func (x *Explorer) ReadCommands(ctx context.Context, r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == listReaders:
			x.writeReaders(w)
			continue
		}

		name := ""
		if strings.HasPrefix(line, "@") {
			name, line, _ = strings.Cut(line[1:], " ")
		}

		resp, err := x.Issue(ctx, name, line)
		if err != nil {
			fmt.Fprintf(w, "(!) %v\n", err)
		} else {
			fmt.Fprintln(w, resp.Describe(emv.TagName))
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (x *Explorer) writeReaders(w io.Writer) {
	names := x.Readers()
	if len(names) == 0 {
		fmt.Fprintln(w, "(no card)")
		return
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
