package wire

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// maxDecompressed bounds the memory a single payload may expand to.
const maxDecompressed = 64 << 20

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll/DecodeAll, so one of each serves the process.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("wire: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxDecompressed),
	)
	if err != nil {
		panic("wire: zstd decoder initialization failed: " + err.Error())
	}
}

// Pack compresses payload when it is at least threshold bytes long and
// compression actually shrinks it. threshold <= 0 disables compression.
func Pack(payload []byte, threshold int) (flags byte, out []byte) {
	if threshold <= 0 || len(payload) < threshold {
		return 0, payload
	}
	compressed := zstdEncoder.EncodeAll(payload, nil)
	if len(compressed) >= len(payload) {
		return 0, payload
	}
	return FlagZstd, compressed
}

// Unpack reverses Pack.
func Unpack(flags byte, payload []byte) ([]byte, error) {
	if flags&FlagZstd == 0 {
		return payload, nil
	}
	out, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	return out, nil
}
