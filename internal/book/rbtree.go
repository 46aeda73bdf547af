package book

import "github.com/shopspring/decimal"

type color uint8

const (
	red   color = 0
	black color = 1
)

// rbnode is one tree node keyed by price, holding the PriceLevel living at
// that price. Adapted from the int64-keyed CLRS-style tree in the pack to
// a decimal.Decimal-keyed one (§4.D: "a balanced ordered map keyed by
// price"); comparisons go through decimal.Decimal.Cmp instead of <,>.
type rbnode struct {
	key    decimal.Decimal
	level  *PriceLevel
	color  color
	left   *rbnode
	right  *rbnode
	parent *rbnode
}

// rbtree is a red-black tree providing O(log P) level lookup/insert/delete
// and O(log P) min/max access (a descent to the extreme node), where P is
// the number of distinct price levels on one side (§4.D).
type rbtree struct {
	root *rbnode
	nilN *rbnode // sentinel, always black
	size int
}

func newRBTree() *rbtree {
	sentinel := &rbnode{color: black}
	return &rbtree{root: sentinel, nilN: sentinel, size: 0}
}

func (t *rbtree) Size() int { return t.size }

// upsertLevel returns the existing level at price or creates and inserts a
// new empty one (§4.D: "the level is created on first insert").
func (t *rbtree) upsertLevel(price decimal.Decimal) *PriceLevel {
	y := t.nilN
	x := t.root
	for x != t.nilN {
		y = x
		switch c := price.Cmp(x.key); {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			return x.level
		}
	}

	pl := newPriceLevel(price)
	z := &rbnode{
		key:    price,
		level:  pl,
		color:  red,
		left:   t.nilN,
		right:  t.nilN,
		parent: y,
	}

	if y == t.nilN {
		t.root = z
	} else if z.key.Cmp(y.key) < 0 {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return pl
}

func (t *rbtree) deleteLevel(price decimal.Decimal) bool {
	z := t.searchNode(price)
	if z == t.nilN {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *rbtree) minLevel() *PriceLevel {
	n := t.minNode(t.root)
	if n == t.nilN {
		return nil
	}
	return n.level
}

func (t *rbtree) maxLevel() *PriceLevel {
	n := t.maxNode(t.root)
	if n == t.nilN {
		return nil
	}
	return n.level
}

// forEachAscending walks levels from lowest to highest price, stopping
// early when fn returns false.
func (t *rbtree) forEachAscending(fn func(*PriceLevel) bool) {
	for n := t.minNode(t.root); n != t.nilN; n = t.next(n) {
		if !fn(n.level) {
			return
		}
	}
}

// forEachDescending walks levels from highest to lowest price, stopping
// early when fn returns false.
func (t *rbtree) forEachDescending(fn func(*PriceLevel) bool) {
	for n := t.maxNode(t.root); n != t.nilN; n = t.prev(n) {
		if !fn(n.level) {
			return
		}
	}
}

/******************** internal helpers ********************/

func (t *rbtree) searchNode(price decimal.Decimal) *rbnode {
	n := t.root
	for n != t.nilN {
		switch c := price.Cmp(n.key); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return t.nilN
}

func (t *rbtree) minNode(n *rbnode) *rbnode {
	if n == t.nilN {
		return t.nilN
	}
	for n.left != t.nilN {
		n = n.left
	}
	return n
}

func (t *rbtree) maxNode(n *rbnode) *rbnode {
	if n == t.nilN {
		return t.nilN
	}
	for n.right != t.nilN {
		n = n.right
	}
	return n
}

func (t *rbtree) next(n *rbnode) *rbnode {
	if n == t.nilN {
		return t.nilN
	}
	if n.right != t.nilN {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nilN && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *rbtree) prev(n *rbnode) *rbnode {
	if n == t.nilN {
		return t.nilN
	}
	if n.left != t.nilN {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nilN && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *rbtree) leftRotate(x *rbnode) {
	y := x.right
	x.right = y.left
	if y.left != t.nilN {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nilN {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *rbtree) rightRotate(y *rbnode) {
	x := y.left
	y.left = x.right
	if x.right != t.nilN {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nilN {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *rbtree) insertFixup(z *rbnode) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *rbtree) transplant(u, v *rbnode) {
	if u.parent == t.nilN {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *rbtree) deleteNode(z *rbnode) {
	y := z
	yOrigColor := y.color
	var x *rbnode

	if z.left == t.nilN {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nilN {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
}

func (t *rbtree) deleteFixup(x *rbnode) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(x.parent)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
