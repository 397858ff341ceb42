package allocator

// sizeTree is the (size, address)-keyed AVL tree backing best-fit and
// worst-fit. Address is the tiebreaker, so the ordering is total: no two
// distinct blocks ever compare equal, which is what makes deletion of a
// specific node (rather than "a node with this key") well-defined.
type sizeTree struct {
	root *block
}

// less orders two free blocks by (size, address).
func less(a, b *block) bool {
	if a.size != b.size {
		return a.size < b.size
	}
	return a.addr() < b.addr()
}

func height(n *block) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor(n *block) int {
	return height(n.left) - height(n.right)
}

func updateHeight(n *block) {
	n.height = 1 + max(height(n.left), height(n.right))
}

func rotateRight(n *block) *block {
	l := n.left
	n.left = l.right
	l.right = n
	updateHeight(n)
	updateHeight(l)
	return l
}

func rotateLeft(n *block) *block {
	r := n.right
	n.right = r.left
	r.left = n
	updateHeight(n)
	updateHeight(r)
	return r
}

// rebalance restores |balance| <= 1 at n via single or double rotations,
// after n's height has been recomputed from (possibly changed) children.
func rebalance(n *block) *block {
	updateHeight(n)

	switch bal := balanceFactor(n); {
	case bal > 1:
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bal < -1:
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	default:
		return n
	}
}

func insertNode(n, b *block) *block {
	if n == nil {
		b.left, b.right, b.height = nil, nil, 1
		return b
	}

	if less(b, n) {
		n.left = insertNode(n.left, b)
	} else {
		n.right = insertNode(n.right, b)
	}

	return rebalance(n)
}

func (t *sizeTree) insert(b *block) {
	t.root = insertNode(t.root, b)
}

// minNode returns the left-most (smallest-keyed) node of a non-nil subtree.
func minNode(n *block) *block {
	for n.left != nil {
		n = n.left
	}
	return n
}

// deleteNode removes the node with target's key (target's own address, by
// construction, since the key is total) from the subtree rooted at n, using
// the standard replace-with-in-order-successor algorithm, rebalancing on
// the way back up.
func deleteNode(n, target *block) *block {
	if n == nil {
		return nil
	}

	switch {
	case less(target, n):
		n.left = deleteNode(n.left, target)
	case less(n, target):
		n.right = deleteNode(n.right, target)
	default:
		switch {
		case n.left == nil:
			return n.right
		case n.right == nil:
			return n.left
		default:
			succ := minNode(n.right)
			n.right = deleteNode(n.right, succ)
			succ.left, succ.right = n.left, n.right
			n = succ
		}
	}

	return rebalance(n)
}

func (t *sizeTree) remove(b *block) {
	t.root = deleteNode(t.root, b)
}

// bestFit returns the smallest free block with size >= need (tiebreak:
// smallest address), or nil. Descends left whenever the current node
// satisfies need, to look for something smaller-but-still-sufficient;
// right otherwise.
func (t *sizeTree) bestFit(need uintptr) *block {
	var candidate *block
	for n := t.root; n != nil; {
		if need <= n.size {
			candidate = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return candidate
}

// worstFit returns the largest free block with size >= need (tiebreak:
// largest address), or nil.
//
// The descent always moves right. Because the key is total (size,
// address), every node on a right spine has a strictly greater key than
// its parent, so the spine ends at the tree's maximum key; recording every
// node along the way that satisfies size >= need and keeping the last one
// recorded is therefore sufficient to find the sufficient block of maximal
// size. This is the corrected form of the descent: the bug the naive
// version had was failing to record candidates found along the path, not
// the right-preferring direction itself.
func (t *sizeTree) worstFit(need uintptr) *block {
	var candidate *block
	for n := t.root; n != nil; n = n.right {
		if n.size >= need {
			candidate = n
		}
	}
	return candidate
}
