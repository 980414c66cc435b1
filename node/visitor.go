package node

// Visitor receives the value held by a node key.
type Visitor interface {
	VisitInteger(v int64)
	VisitString(v string)
	VisitReference(ref Reference)
	VisitNode(n *Node)
	VisitList(list []*Node)
}

// Accept calls the visitor method matching the value held by the key.
//
// At most one method is called. Returns false if the key holds no value.
func (n *Node) Accept(visitor Visitor, key string) bool {
	v, ok := n.get(key)
	if !ok {
		return false
	}
	switch v.kind {
	case KindInteger:
		visitor.VisitInteger(v.i)
	case KindString:
		visitor.VisitString(v.s)
	case KindReference:
		visitor.VisitReference(v.ref)
	case KindNode:
		visitor.VisitNode(v.node.view())
	case KindList:
		visitor.VisitList(viewList(v.list))
	default:
		return false
	}
	return true
}

// Walk calls the visitor for every key in sorted order.
func (n *Node) Walk(visitor Visitor) {
	for _, k := range n.Keys() {
		n.Accept(visitor, k)
	}
}
