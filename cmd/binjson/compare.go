package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/unkn0wn-root/binjson"
	"github.com/unkn0wn-root/binjson/codec"
)

type namedCodec struct {
	name string
	c    codec.Codec[binjson.Value]
}

func compareCodecs() []namedCodec {
	return []namedCodec{
		{"binjson", codec.Binary{}},
		{"binjson (no dictionary)", codec.Binary{C: binjson.New(binjson.Options{DisableDictionary: true})}},
		{"json", codec.JSON{}},
		{"cbor", codec.MustCBOR(true)},
		{"msgpack", codec.Msgpack{}},
		{"protobuf", codec.Protobuf{}},
	}
}

func runCompare(args []string, e env) error {
	var f ioFlags
	if err := parse(newFlagSet("compare", &f, false), args); err != nil {
		return err
	}
	v, err := readJSON(f.in, e)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "codec\tbytes\t\n")
	for _, nc := range compareCodecs() {
		b, err := nc.c.Encode(v)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\n", nc.name, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t\n", nc.name, len(b))
	}
	return tw.Flush()
}
