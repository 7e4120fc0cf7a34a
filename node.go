package dton

// node is a map or array staged by a builder.
type node struct {
	typ    Type
	id     int
	keys   []int // key indices, map nodes only
	values []int // value indices
}

func newNode(t Type, id int) *node {
	n := &node{typ: t, id: id, values: make([]int, 0, 4)}
	if t == TypeMap {
		n.keys = make([]int, 0, 4)
	}
	return n
}

// slots returns the number of offset fields in the node's property table.
func (n *node) slots() int {
	return 1 + len(n.keys) + len(n.values)
}
