package node

// Equal returns true if both nodes hold the same keys and every key holds an equal value.
//
// References are compared by name only.
func Equal(a, b *Node) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, av := range a.values {
		bv, ok := b.values[k]
		if !ok || !equalValue(av, bv) {
			return false
		}
	}
	return true
}

// Equal returns true if the other node is structurally equal to this node.
func (n *Node) Equal(other *Node) bool {
	return Equal(n, other)
}

// EqualList returns true if both lists have equal nodes in the same order.
func EqualList(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalValue(a, b value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInteger:
		return a.i == b.i
	case KindString:
		return a.s == b.s
	case KindReference:
		return a.ref.Name == b.ref.Name
	case KindNode:
		return a.node == b.node || Equal(a.node, b.node)
	case KindList:
		return EqualList(a.list, b.list)
	default:
		return false
	}
}
