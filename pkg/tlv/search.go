package tlv

// Tag search walks a decoded tree in pre-order: a node is tested before its
// children and children are visited left to right. A missing tag is a normal
// outcome, reported as nil.

// FindFirst returns the first node carrying tag, or nil.
func FindFirst(root *Node, tag uint32) *Node {
	var found *Node
	walk(root, func(n *Node) bool {
		if n.Tag == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node carrying tag, in encounter order.
// Matching nodes are searched too, so a template nested inside a template
// with the same tag is also returned.
func FindAll(root *Node, tag uint32) []*Node {
	var found []*Node
	walk(root, func(n *Node) bool {
		if n.Tag == tag {
			found = append(found, n)
		}
		return true
	})
	return found
}

// walk visits the tree in pre-order until visit returns false.
func walk(root *Node, visit func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}
