package binjson

import (
	"math"
	"sort"
)

// phase is the state of one dictionary-aware encode. Phases only move forward.
type phase uint8

const (
	phaseAnalyzing  phase = iota // counting repeated values
	phaseSimulating              // dry run marking entries referenced as whole values
	phaseEmitting                // writing bytes
)

func (p phase) String() string {
	switch p {
	case phaseAnalyzing:
		return "analyzing"
	case phaseSimulating:
		return "simulating"
	case phaseEmitting:
		return "emitting"
	default:
		return "unknown"
	}
}

// smallInt is the magnitude below which integers stay inline; a reference
// would cost as much as the value.
const smallInt = math.MaxUint16 + 1

type dictEntry struct {
	key      dictKey
	count    int
	value    Value
	node     *node
	position int
	used     bool
}

// dictionary maps structural keys to candidate entries. It lives for a
// single encode call.
type dictionary struct {
	index map[dictKey]*dictEntry
	order []*dictEntry // first-seen order until finalize, position order after
}

func newDictionary() *dictionary {
	return &dictionary{index: make(map[dictKey]*dictEntry)}
}

// qualifies reports whether v may be replaced by a dictionary reference.
func qualifies(v Value) bool {
	switch v.kind {
	case KindString:
		return v.s != ""
	case KindNumber:
		if v.n.IsNaN() {
			return false
		}
		return v.n.float || v.n.mag >= smallInt
	case KindArray, KindObject:
		return v.Len() > 1
	default:
		return false
	}
}

func (d *dictionary) lookup(k dictKey) *dictEntry {
	return d.index[k]
}

func (d *dictionary) add(k dictKey, v Value, n *node) {
	if e, ok := d.index[k]; ok {
		e.count++
		return
	}
	e := &dictEntry{key: k, count: 1, value: v, node: n, position: -1}
	d.index[k] = e
	d.order = append(d.order, e)
}

// analyze counts every qualifying value of the tree, object keys included,
// descending into containers whether or not they qualify themselves.
func (d *dictionary) analyze(v Value, n *node, keys map[string]dictKey) {
	if qualifies(v) {
		d.add(n.key, v, n)
	}
	switch v.kind {
	case KindArray:
		for i, e := range v.arr {
			d.analyze(e, n.child(i), keys)
		}
	case KindObject:
		for i, m := range v.obj {
			if m.Key != "" {
				k := cachedStringKey(keys, m.Key)
				d.add(k, String(m.Key), &node{key: k})
			}
			d.analyze(m.Value, n.child(i), keys)
		}
	}
}

// prune drops entries that occur only once.
func (d *dictionary) prune() {
	kept := d.order[:0]
	for _, e := range d.order {
		if e.count > 1 {
			kept = append(kept, e)
			continue
		}
		d.drop(e)
	}
	d.order = kept
}

// finalize drops non-string entries the simulation never referenced, then
// orders strings first and each group by descending count. Ties keep
// first-seen order. Positions follow the final order.
func (d *dictionary) finalize() {
	var strs, rest []*dictEntry
	for _, e := range d.order {
		switch {
		case e.value.kind == KindString:
			strs = append(strs, e)
		case e.used:
			rest = append(rest, e)
		default:
			d.drop(e)
		}
	}
	byCount := func(s []*dictEntry) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].count > s[j].count })
	}
	byCount(strs)
	byCount(rest)

	d.order = append(strs, rest...)
	for i, e := range d.order {
		e.position = i
	}
}

func (d *dictionary) drop(e *dictEntry) { delete(d.index, e.key) }

func (d *dictionary) len() int { return len(d.order) }

func cachedStringKey(cache map[string]dictKey, s string) dictKey {
	if k, ok := cache[s]; ok {
		return k
	}
	k := stringKey(s)
	cache[s] = k
	return k
}
