package bundle

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec applied to one stored chunk
// payload. The values are format constants; changing them breaks
// every existing bundle.
type Compression uint8

const (
	// CompressionNone stores the payload as-is. Chosen automatically
	// whenever a codec fails to shrink the payload.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: modest ratios, very
	// cheap decode.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at its default level: better ratios on
	// the string- and table-heavy payloads animation chunks tend to
	// carry.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// errIncompressible reports that a codec could not beat the raw size;
// the caller stores the payload uncompressed instead.
var errIncompressible = errors.New("data is incompressible")

// zstd's encoder and decoder are reusable and concurrency-safe, so
// the package shares one of each.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("bundle: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("bundle: zstd decoder initialization failed: " + err.Error())
	}
}

// compress encodes raw with the requested codec, falling back to
// CompressionNone when the codec does not shrink the data. It returns
// the stored bytes and the codec actually used.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	var stored []byte
	var err error
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionLZ4:
		stored, err = compressLZ4(raw)
	case CompressionZstd:
		stored, err = compressZstd(raw)
	default:
		return nil, 0, fmt.Errorf("unsupported compression %d", uint8(c))
	}
	if errors.Is(err, errIncompressible) {
		return raw, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return stored, c, nil
}

// decompress restores a stored payload to exactly rawSize bytes.
func decompress(stored []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != rawSize {
			return nil, fmt.Errorf("stored payload is %d bytes, expected %d", len(stored), rawSize)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, rawSize)
	case CompressionZstd:
		return decompressZstd(stored, rawSize)
	default:
		return nil, fmt.Errorf("unsupported compression %d", uint8(c))
	}
}

func compressLZ4(raw []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	written, err := lz4.CompressBlock(raw, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports incompressible input as zero bytes
	// written.
	if written == 0 || written >= len(raw) {
		return nil, errIncompressible
	}
	return dst[:written], nil
}

func decompressLZ4(stored []byte, rawSize int) ([]byte, error) {
	dst := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(stored, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return dst, nil
}

func compressZstd(raw []byte) ([]byte, error) {
	stored := zstdEncoder.EncodeAll(raw, nil)
	if len(stored) >= len(raw) {
		return nil, errIncompressible
	}
	return stored, nil
}

func decompressZstd(stored []byte, rawSize int) ([]byte, error) {
	raw, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(raw) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(raw), rawSize)
	}
	return raw, nil
}
