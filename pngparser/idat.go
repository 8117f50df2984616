package pngparser

import (
	"bytes"
	"io"

	"png-steganography/logging"
	"png-steganography/oops"

	"github.com/klauspost/compress/zlib"
)

// InflateRows decompresses the concatenated payloads of the data chunks.
// The result must be exactly expected bytes long.
func InflateRows(chunks []*Chunk, expected int) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, oops.New(ErrDecompression, "image has no %s chunks", ChunkData)
	}

	readers := make([]io.Reader, 0, len(chunks))
	compressed := 0
	for _, c := range chunks {
		readers = append(readers, bytes.NewReader(c.Data))
		compressed += len(c.Data)
	}

	zr, err := zlib.NewReader(io.MultiReader(readers...))
	if err != nil {
		return nil, oops.New(ErrDecompression, "bad zlib stream header in %d bytes of %s data", compressed, ChunkData)
	}
	defer zr.Close()

	var out bytes.Buffer
	out.Grow(expected)
	// One byte of slack so an oversized stream is reported as such.
	n, err := io.Copy(&out, io.LimitReader(zr, int64(expected)+1))
	if err != nil {
		return nil, oops.New(ErrDecompression, "inflating %d %s chunks after %d bytes: %v", len(chunks), ChunkData, n, err)
	}
	if n > int64(expected) {
		return nil, oops.New(ErrSizeMismatch, "inflated more than %d bytes, expected %d", expected, expected)
	}
	if n != int64(expected) {
		return nil, oops.New(ErrSizeMismatch, "inflated %d bytes, expected %d", n, expected)
	}

	logging.Debug().
		Int("chunks", len(chunks)).
		Int("compressed", compressed).
		Int64("inflated", n).
		Msg("Inflated image data")

	return out.Bytes(), nil
}

// DeflateRows compresses filtered scanlines into a zlib stream and splits it
// into payloads of at most maxChunkSize bytes, in stream order.
func DeflateRows(filtered []byte, maxChunkSize int, level int) ([][]byte, error) {
	if maxChunkSize < 1 || maxChunkSize > maxChunkLength {
		return nil, oops.New(nil, "invalid maximum chunk size %d", maxChunkSize)
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, oops.New(err, "failed to create compressor at level %d", level)
	}
	if _, err := zw.Write(filtered); err != nil {
		return nil, oops.New(err, "failed to compress image data")
	}
	if err := zw.Close(); err != nil {
		return nil, oops.New(err, "failed to flush compressor")
	}

	compressed := buf.Bytes()
	payloads := make([][]byte, 0, (len(compressed)+maxChunkSize-1)/maxChunkSize)
	for len(compressed) > 0 {
		n := maxChunkSize
		if n > len(compressed) {
			n = len(compressed)
		}
		payloads = append(payloads, compressed[:n:n])
		compressed = compressed[n:]
	}

	logging.Debug().
		Int("filtered", len(filtered)).
		Int("compressed", buf.Len()).
		Int("chunks", len(payloads)).
		Msg("Deflated image data")

	return payloads, nil
}
