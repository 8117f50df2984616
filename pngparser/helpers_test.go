package pngparser

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func headerBytes(h ImageHeader) []byte {
	b := make([]byte, HeaderLength)
	binary.BigEndian.PutUint32(b[0:4], h.Width)
	binary.BigEndian.PutUint32(b[4:8], h.Height)
	b[8] = h.BitDepth
	b[9] = h.ColorType
	b[10] = h.CompressionMethod
	b[11] = h.FilterMethod
	b[12] = h.InterlaceMethod
	return b
}

// rawPNG assembles a datastream from the given chunks, without checking them.
func rawPNG(t *testing.T, chunks ...*Chunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Signature)
	for _, c := range chunks {
		require.NoError(t, WriteChunk(&buf, c))
	}
	return buf.Bytes()
}

// stdlibPNG encodes m with the standard library encoder.
func stdlibPNG(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	return buf.Bytes()
}

func noisyNRGBA(w, h int, seed int64) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	rand.New(rand.NewSource(seed)).Read(m.Pix)
	return m
}

func noisyOpaqueRGBA(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return m
}
