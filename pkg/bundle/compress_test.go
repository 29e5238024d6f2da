package bundle

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func TestCompressionString(t *testing.T) {
	tests := []struct {
		codec Compression
		want  string
	}{
		{CompressionNone, "none"},
		{CompressionLZ4, "lz4"},
		{CompressionZstd, "zstd"},
		{Compression(99), "unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.codec.String(); got != tt.want {
			t.Errorf("Compression(%d).String() = %q, want %q", tt.codec, got, tt.want)
		}
	}
}

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		codec, err := ParseCompression(name)
		if err != nil {
			t.Fatalf("ParseCompression(%q) failed: %v", name, err)
		}
		if codec.String() != name {
			t.Errorf("ParseCompression(%q).String() = %q", name, codec.String())
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(\"gzip\") should fail")
	}
}

func TestCompressRoundTrip(t *testing.T) {
	// Repetitive data so both codecs actually shrink it.
	raw := make([]byte, 64*1024)
	for i := range raw {
		raw[i] = byte(i % 17)
	}

	for _, codec := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			stored, used, err := compress(raw, codec)
			if err != nil {
				t.Fatalf("compress(%s) failed: %v", codec, err)
			}
			if used != codec {
				t.Fatalf("compress(%s) used %s", codec, used)
			}
			if codec != CompressionNone && len(stored) >= len(raw) {
				t.Errorf("%s did not shrink: %d bytes -> %d bytes", codec, len(raw), len(stored))
			}
			back, err := decompress(stored, used, len(raw))
			if err != nil {
				t.Fatalf("decompress(%s) failed: %v", used, err)
			}
			if !bytes.Equal(back, raw) {
				t.Errorf("%s round trip mismatch", codec)
			}
		})
	}
}

func TestCompressIncompressibleFallsBack(t *testing.T) {
	raw := make([]byte, 64*1024)
	rand.Read(raw)

	for _, codec := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			stored, used, err := compress(raw, codec)
			if err != nil {
				t.Fatalf("compress(%s) failed: %v", codec, err)
			}
			if used != CompressionNone {
				t.Errorf("random data stored as %s, want none", used)
			}
			if !bytes.Equal(stored, raw) {
				t.Error("fallback should store the raw bytes unchanged")
			}
		})
	}
}

func TestCompressorsReportIncompressible(t *testing.T) {
	raw := make([]byte, 4*1024)
	rand.Read(raw)

	if _, err := compressLZ4(raw); !errors.Is(err, errIncompressible) {
		t.Errorf("compressLZ4(random) = %v, want errIncompressible", err)
	}
	if _, err := compressZstd(raw); !errors.Is(err, errIncompressible) {
		t.Errorf("compressZstd(random) = %v, want errIncompressible", err)
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	raw := []byte("stored size disagrees with the entry")

	if _, err := decompress(raw, CompressionNone, len(raw)+5); err == nil {
		t.Error("decompress(none) should fail when the stored size does not match")
	}

	compressible := bytes.Repeat([]byte("abcd"), 1024)
	for _, codec := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, used, err := compress(compressible, codec)
		if err != nil || used != codec {
			t.Fatalf("compress(%s) = (%s, %v)", codec, used, err)
		}
		if _, err := decompress(stored, used, len(compressible)+1); err == nil {
			t.Errorf("decompress(%s) should fail on a raw size mismatch", codec)
		}
	}
}

func TestCompressUnsupportedCodec(t *testing.T) {
	if _, _, err := compress([]byte("data"), Compression(99)); err == nil {
		t.Error("compress with an unknown codec should fail")
	}
	if _, err := decompress([]byte("data"), Compression(99), 4); err == nil {
		t.Error("decompress with an unknown codec should fail")
	}
}
