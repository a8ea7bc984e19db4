package binjson

import (
	"fmt"

	"github.com/unkn0wn-root/binjson/internal/buffer"
	"github.com/unkn0wn-root/binjson/internal/util"
)

const (
	defaultBufferSize = 128
	defaultMaxDepth   = 512
)

// Options tune a Codec. The zero value gives the full format: numeric string
// coercion and dictionary compression on, no size limit.
type Options struct {
	Logger                 Logger // if nil, NopLogger is used
	DisableDictionary      bool   // default false => repeated values are deduplicated
	DisableNumericCoercion bool   // default false => "42" encodes as 42
	InitialBufferSize      int    // 0 => 128 bytes; the buffer grows as needed
	MaxDecode              int    // max input length for Decode; <= 0 => unlimited
	MaxDepth               int    // container nesting limit; 0 => 512, < 0 => unlimited
}

// EncodeStats describes one encoded stream.
type EncodeStats struct {
	DictionaryEntries int // values written to the dictionary block
	References        int // DictionaryEntry tags written, dictionary block included
	Bytes             int
}

// Codec encodes and decodes Values. It holds only configuration and is safe
// for concurrent use; every call builds its own buffer and dictionary.
type Codec struct {
	log        Logger
	dictionary bool
	coerce     bool
	bufSize    int
	maxDecode  int
	maxDepth   int
}

func New(opts Options) *Codec {
	return &Codec{
		log:        util.Coalesce[Logger](opts.Logger, NopLogger{}),
		dictionary: !opts.DisableDictionary,
		coerce:     !opts.DisableNumericCoercion,
		bufSize:    util.Positive(opts.InitialBufferSize, defaultBufferSize),
		maxDecode:  opts.MaxDecode,
		maxDepth:   util.Coalesce(opts.MaxDepth, defaultMaxDepth),
	}
}

var defaultCodec = New(Options{})

// Encode encodes v with the default Options.
func Encode(v Value) ([]byte, error) { return defaultCodec.Encode(v) }

// Decode decodes b with the default Options.
func Decode(b []byte) (Value, error) { return defaultCodec.Decode(b) }

func (c *Codec) Encode(v Value) ([]byte, error) {
	b, _, err := c.EncodeWithStats(v)
	return b, err
}

// EncodeWithStats encodes v and reports dictionary usage.
//
// With the dictionary enabled the tree is analyzed for repeated values,
// a dry run marks which candidates are referenced as whole values, the
// survivors are ordered (strings first, then by descending count) and
// written as a leading Dictionary block before the payload.
func (c *Codec) EncodeWithStats(v Value) ([]byte, EncodeStats, error) {
	if c.coerce {
		v = Normalize(v)
	}
	e := &encoder{buf: buffer.New(c.bufSize), maxDepth: c.maxDepth}

	var root *node
	if !c.dictionary {
		e.phase = phaseEmitting
	} else {
		tree, err := buildTree(v, 0, c.maxDepth)
		if err != nil {
			return nil, EncodeStats{}, &EncodeError{Path: "$", Err: err}
		}
		root = &tree
		e.dict = newDictionary()
		e.keys = make(map[string]dictKey)
		e.dict.analyze(v, root, e.keys)
		e.dict.prune()

		e.enter(phaseSimulating)
		if err := e.writeValue(v, root, "", false, 0); err != nil {
			return nil, EncodeStats{}, atPath(err, "$")
		}
		e.dict.finalize()

		e.enter(phaseEmitting)
		if err := c.writeDictionary(e); err != nil {
			return nil, EncodeStats{}, err
		}
		e.limit = e.dict.len()
	}

	if err := e.writeValue(v, root, "", false, 0); err != nil {
		return nil, EncodeStats{}, atPath(err, "$")
	}

	out := e.buf.Bytes()
	stats := EncodeStats{References: e.refs, Bytes: len(out)}
	if e.dict != nil {
		stats.DictionaryEntries = e.dict.len()
		c.log.Debug("binjson encoded with dictionary", Fields{
			"entries": stats.DictionaryEntries,
			"refs":    stats.References,
			"bytes":   stats.Bytes,
		})
	}
	return out, stats, nil
}

// writeDictionary emits entries in position order. Entry p may only
// reference entries before it, which the decoder has already materialized.
func (c *Codec) writeDictionary(e *encoder) error {
	if e.dict.len() == 0 {
		return nil
	}
	e.writeTag(TagDictionary)
	for p, ent := range e.dict.order {
		e.limit = p
		if err := e.writeValue(ent.value, ent.node, "", false, 0); err != nil {
			return atPath(err, fmt.Sprintf("dictionary[%d]", p))
		}
	}
	e.writeTag(TagEnd)
	return nil
}

// Decode reconstructs a Value; no partial value is returned. Input longer
// than MaxDecode fails with ErrPayloadTooLarge before decoding starts; every
// other failure is a *DecodeError matching ErrMalformedStream.
func (c *Codec) Decode(b []byte) (Value, error) {
	if c.maxDecode > 0 && len(b) > c.maxDecode {
		return Value{}, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(b), c.maxDecode)
	}
	d := &decoder{r: buffer.NewReader(b), maxDepth: c.maxDepth}
	v, err := d.decode()
	if err != nil {
		c.log.Debug("binjson decode failed", Fields{"len": len(b), "err": err})
		return Value{}, err
	}
	return v, nil
}
