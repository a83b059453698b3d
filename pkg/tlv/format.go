package tlv

import (
	"fmt"
	"strings"
)

// TagNamer resolves a tag to a display name. It reports false for tags it
// does not know.
type TagNamer func(tag uint32) (string, bool)

// Format renders a tree one element per line, children indented by a tab:
//
//	6F (FCI_TEMPLATE)
//		84 (DEDICATED_FILE_NAME) 1PAY.SYS.DDF01 315041592E5359532E4444463031
//
// names may be nil.
func Format(root *Node, names TagNamer) string {
	if root == nil {
		return ""
	}

	type item struct {
		node  *Node
		depth int
	}

	var sb strings.Builder
	stack := []item{{root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sb.WriteString(strings.Repeat("\t", it.depth))
		sb.WriteString(it.node.TagHex())
		if names != nil {
			if name, ok := names(it.node.Tag); ok {
				fmt.Fprintf(&sb, " (%s)", name)
			}
		}
		if !it.node.Constructed {
			fmt.Fprintf(&sb, " %s %X", Printable(it.node.Value), it.node.Value)
		}
		sb.WriteString("\n")

		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.Children[i], it.depth + 1})
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
