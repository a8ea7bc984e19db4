package binjson

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/blake3"
)

// Digest is the structural hash of a Value.
type Digest [32]byte

// dictKey identifies logically equal values: same kind, same digest.
type dictKey struct {
	kind Kind
	sum  Digest
}

// node mirrors a Value tree with the structural key of every subtree, so the
// dictionary passes look up containers without rehashing their contents.
type node struct {
	key      dictKey
	children []node // array elements or object member values, in order
}

func (n *node) child(i int) *node {
	if n == nil {
		return nil
	}
	return &n.children[i]
}

// Hash returns the structural digest of v. Equal values hash equally;
// object member order does not affect the result.
func Hash(v Value) Digest {
	n, _ := buildTree(v, 0, 0)
	return n.key.sum
}

// buildTree hashes v bottom-up. maxDepth <= 0 disables the depth limit.
//
// Scalars hash a kind marker plus their text. Arrays hash a marker, the
// element count and each element digest in order. Objects hash a marker,
// the member count and (key, value digest) pairs sorted by key.
func buildTree(v Value, depth, maxDepth int) (node, error) {
	if maxDepth > 0 && depth > maxDepth {
		return node{}, ErrTooDeep
	}
	h := blake3.New()
	var scratch [binary.MaxVarintLen64]byte
	writeLen := func(n int) {
		h.Write(binary.AppendUvarint(scratch[:0], uint64(n)))
	}

	n := node{key: dictKey{kind: v.kind}}
	switch v.kind {
	case KindNull:
		h.Write([]byte{'n'})
	case KindBool:
		if v.b {
			h.Write([]byte{'t'})
		} else {
			h.Write([]byte{'f'})
		}
	case KindNumber:
		h.Write([]byte{'N'})
		h.WriteString(v.n.String())
	case KindString:
		h.Write([]byte{'S'})
		writeLen(len(v.s))
		h.WriteString(v.s)
	case KindArray:
		h.Write([]byte{'A'})
		writeLen(len(v.arr))
		n.children = make([]node, len(v.arr))
		for i, e := range v.arr {
			c, err := buildTree(e, depth+1, maxDepth)
			if err != nil {
				return node{}, err
			}
			n.children[i] = c
			h.Write(c.key.sum[:])
		}
	case KindObject:
		h.Write([]byte{'O'})
		writeLen(len(v.obj))
		n.children = make([]node, len(v.obj))
		for i, m := range v.obj {
			c, err := buildTree(m.Value, depth+1, maxDepth)
			if err != nil {
				return node{}, err
			}
			n.children[i] = c
		}
		order := make([]int, len(v.obj))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return v.obj[order[a]].Key < v.obj[order[b]].Key })
		for _, i := range order {
			writeLen(len(v.obj[i].Key))
			h.WriteString(v.obj[i].Key)
			h.Write(n.children[i].key.sum[:])
		}
	}
	copy(n.key.sum[:], h.Sum(nil))
	return n, nil
}

// stringKey is the dictionary key of a plain string, used for object keys.
func stringKey(s string) dictKey {
	n, _ := buildTree(String(s), 0, 0)
	return n.key
}
