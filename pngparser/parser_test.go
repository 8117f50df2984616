package pngparser

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"png-steganography/filter"
	"png-steganography/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rgb8x8 = ImageHeader{Width: 8, Height: 8, BitDepth: 8, ColorType: ColorRGB}

func TestOpenBadSignature(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":  nil,
		"short":  Signature[:4],
		"jpeg":   {0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'},
		"almost": append(bytes.Clone(Signature[:7]), 0),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewImage(bytes.NewReader(data))
			assert.True(t, errors.Is(err, ErrBadSignature), "%v", err)
		})
	}
}

func TestOpenMalformedHeader(t *testing.T) {
	t.Run("not IHDR first", func(t *testing.T) {
		data := rawPNG(t, NewChunk("tEXt", []byte("a\x00b")), NewChunk(ChunkHeader, headerBytes(rgb8x8)))
		_, err := NewImage(bytes.NewReader(data))
		assert.True(t, errors.Is(err, ErrMalformedHeader))
	})
	t.Run("wrong length", func(t *testing.T) {
		data := rawPNG(t, NewChunk(ChunkHeader, append(headerBytes(rgb8x8), 0)))
		_, err := NewImage(bytes.NewReader(data))
		assert.True(t, errors.Is(err, ErrMalformedHeader))
	})
	t.Run("zero width", func(t *testing.T) {
		h := rgb8x8
		h.Width = 0
		_, err := NewImage(bytes.NewReader(rawPNG(t, NewChunk(ChunkHeader, headerBytes(h)))))
		assert.True(t, errors.Is(err, ErrMalformedHeader))
	})
	t.Run("nothing after signature", func(t *testing.T) {
		_, err := NewImage(bytes.NewReader(Signature))
		assert.True(t, errors.Is(err, ErrMalformedHeader))
	})
	t.Run("corrupt IHDR", func(t *testing.T) {
		data := rawPNG(t, NewChunk(ChunkHeader, headerBytes(rgb8x8)))
		data[len(Signature)+10] ^= 0xff
		_, err := NewImage(bytes.NewReader(data))
		assert.True(t, errors.Is(err, ErrIntegrity))
	})
}

func TestOpenUnsupported(t *testing.T) {
	mutations := map[string]func(h *ImageHeader){
		"interlaced":        func(h *ImageHeader) { h.InterlaceMethod = 1 },
		"bit depth 4":       func(h *ImageHeader) { h.BitDepth = 4 },
		"bit depth 1":       func(h *ImageHeader) { h.BitDepth = 1 },
		"bit depth 12":      func(h *ImageHeader) { h.BitDepth = 12 },
		"color type 5":      func(h *ImageHeader) { h.ColorType = 5 },
		"color type 1":      func(h *ImageHeader) { h.ColorType = 1 },
		"16-bit palette":    func(h *ImageHeader) { h.ColorType = ColorIndexed; h.BitDepth = 16 },
		"compression other": func(h *ImageHeader) { h.CompressionMethod = 1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			h := rgb8x8
			mutate(&h)
			// The bytes after IHDR are garbage; rejection must not depend on them.
			data := append(rawPNG(t, NewChunk(ChunkHeader, headerBytes(h))), 0xde, 0xad)
			_, err := NewImage(bytes.NewReader(data))
			assert.True(t, errors.Is(err, ErrUnsupportedFormat), "%v", err)
		})
	}
}

func TestHeaderGeometry(t *testing.T) {
	tests := []struct {
		h        ImageHeader
		channels int
		bpp      int
		bits     int
	}{
		{ImageHeader{Width: 8, Height: 8, BitDepth: 8, ColorType: ColorGreyscale}, 1, 1, 2},
		{ImageHeader{Width: 8, Height: 8, BitDepth: 8, ColorType: ColorRGB}, 3, 3, 2},
		{ImageHeader{Width: 8, Height: 8, BitDepth: 8, ColorType: ColorIndexed}, 1, 1, 1},
		{ImageHeader{Width: 8, Height: 8, BitDepth: 16, ColorType: ColorGreyscaleAlpha}, 2, 4, 2},
		{ImageHeader{Width: 8, Height: 8, BitDepth: 16, ColorType: ColorRGBA}, 4, 8, 2},
	}
	for _, tt := range tests {
		img, err := NewImage(bytes.NewReader(rawPNG(t, NewChunk(ChunkHeader, headerBytes(tt.h)))))
		require.NoError(t, err)
		assert.Equal(t, tt.channels, img.Header.Channels())
		assert.Equal(t, tt.bpp, img.Header.BytesPerPixel())
		assert.Equal(t, 8*tt.bpp, img.Header.Cols())
		assert.Equal(t, tt.bits, img.BitsPerByte())
	}
}

func TestMaxHiddenCapacity(t *testing.T) {
	img, err := NewImage(bytes.NewReader(rawPNG(t, NewChunk(ChunkHeader, headerBytes(rgb8x8)))))
	require.NoError(t, err)
	assert.Equal(t, 192, img.Header.GridBytes())
	assert.Equal(t, 8, img.MaxHiddenCapacity())

	meta := img.Metadata()
	assert.Equal(t, "RGB", meta.PixelFormat)
	assert.Equal(t, 8, meta.MaxSecretSize)
}

func TestReadMatchesStdlib(t *testing.T) {
	src := noisyNRGBA(13, 7, 1)
	img, err := NewImage(bytes.NewReader(stdlibPNG(t, src)))
	require.NoError(t, err)
	require.Equal(t, ColorRGBA, img.Header.ColorType)
	require.NoError(t, img.Read())

	grid := img.Grid()
	require.Equal(t, 7, grid.Rows)
	require.Equal(t, 13*4, grid.Cols)
	for y := 0; y < grid.Rows; y++ {
		assert.Equal(t, src.Pix[y*src.Stride:y*src.Stride+13*4], grid.Row(y), "row %d", y)
	}

	assert.Error(t, img.Read(), "second read")
}

func TestReadGray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 5, 4))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 37)
	}
	img, err := NewImage(bytes.NewReader(stdlibPNG(t, src)))
	require.NoError(t, err)
	require.NoError(t, img.Read())
	assert.Equal(t, 2, img.Grid().Stride)
	assert.Equal(t, src.Pix, img.Grid().Pix)
}

func TestEncodeStdlibCanRead(t *testing.T) {
	filters := []filter.Type{filter.None, filter.Sub, filter.Up, filter.Average, filter.Paeth, filter.Adaptive}
	for _, ft := range filters {
		t.Run(ft.String(), func(t *testing.T) {
			src := noisyOpaqueRGBA(9, 6, 2)
			img, err := NewImage(bytes.NewReader(stdlibPNG(t, src)))
			require.NoError(t, err)
			require.NoError(t, img.Read())

			opts := DefaultEncodeOptions()
			opts.Filter = ft
			opts.MaxChunkSize = 64
			var out bytes.Buffer
			require.NoError(t, img.Encode(&out, opts))

			decoded, err := png.Decode(bytes.NewReader(out.Bytes()))
			require.NoError(t, err)
			for y := 0; y < 6; y++ {
				for x := 0; x < 9; x++ {
					assert.Equal(t, color.RGBAModel.Convert(src.At(x, y)), color.RGBAModel.Convert(decoded.At(x, y)))
				}
			}
		})
	}
}

func TestChunkOrderPreserved(t *testing.T) {
	grid := models.NewPixelGrid(8, 24, 3)
	for i := range grid.Pix {
		grid.Pix[i] = byte(i)
	}
	filtered, err := filter.Filter(grid, filter.Sub)
	require.NoError(t, err)
	payloads, err := DeflateRows(filtered, 20, 6)
	require.NoError(t, err)

	chunks := []*Chunk{
		NewChunk(ChunkHeader, headerBytes(rgb8x8)),
		NewChunk("gAMA", []byte{0, 0, 0xb1, 0x8f}),
	}
	for _, p := range payloads {
		chunks = append(chunks, NewChunk(ChunkData, p))
	}
	chunks = append(chunks,
		NewChunk("tEXt", []byte("Comment\x00after data")),
		NewChunk(ChunkEnd, nil),
	)

	img, err := NewImage(bytes.NewReader(rawPNG(t, chunks...)))
	require.NoError(t, err)
	require.NoError(t, img.Read())
	assert.Equal(t, grid.Pix, img.Grid().Pix)
	assert.Len(t, img.DataChunks(), len(payloads))

	var out bytes.Buffer
	require.NoError(t, img.Encode(&out, DefaultEncodeOptions()))

	var types []string
	r := bytes.NewReader(out.Bytes()[len(Signature):])
	for {
		c, err := ReadChunk(r)
		if err != nil {
			break
		}
		types = append(types, c.Type)
	}
	assert.Equal(t, []string{"IHDR", "gAMA", "tEXt", "IDAT", "IEND"}, types)

	reread, err := NewImage(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	require.NoError(t, reread.Read())
	assert.Equal(t, grid.Pix, reread.Grid().Pix)
}

func TestLoadRemainingErrors(t *testing.T) {
	ihdr := NewChunk(ChunkHeader, headerBytes(rgb8x8))

	t.Run("missing IEND", func(t *testing.T) {
		img, err := NewImage(bytes.NewReader(rawPNG(t, ihdr, NewChunk(ChunkData, []byte{1}))))
		require.NoError(t, err)
		assert.True(t, errors.Is(img.LoadRemaining(), ErrMissingEnd))
	})
	t.Run("corrupt data chunk", func(t *testing.T) {
		data := rawPNG(t, ihdr, NewChunk(ChunkData, []byte{1, 2, 3, 4}), NewChunk(ChunkEnd, nil))
		idatPayload := len(Signature) + 12 + HeaderLength + 8
		data[idatPayload+1] ^= 0x80
		img, err := NewImage(bytes.NewReader(data))
		require.NoError(t, err)
		assert.True(t, errors.Is(img.Read(), ErrIntegrity))
	})
	t.Run("truncated", func(t *testing.T) {
		data := rawPNG(t, ihdr, NewChunk(ChunkData, []byte{1, 2, 3, 4}), NewChunk(ChunkEnd, nil))
		img, err := NewImage(bytes.NewReader(data[:len(data)-3]))
		require.NoError(t, err)
		assert.True(t, errors.Is(img.LoadRemaining(), ErrTruncatedChunk))
	})
	t.Run("wrong inflated size", func(t *testing.T) {
		payloads, err := DeflateRows(make([]byte, 10), MaxChunkSize, 6)
		require.NoError(t, err)
		img, err := NewImage(bytes.NewReader(rawPNG(t, ihdr, NewChunk(ChunkData, payloads[0]), NewChunk(ChunkEnd, nil))))
		require.NoError(t, err)
		assert.True(t, errors.Is(img.Read(), ErrSizeMismatch))
	})
	t.Run("retry after corrupt chunk", func(t *testing.T) {
		data := rawPNG(t, ihdr, NewChunk("gAMA", []byte{0, 0, 0xb1, 0x8f}), NewChunk(ChunkData, []byte{1}), NewChunk(ChunkEnd, nil))
		gamaPayload := len(Signature) + 12 + HeaderLength + 8
		data[gamaPayload] ^= 0x01
		img, err := NewImage(bytes.NewReader(data))
		require.NoError(t, err)

		assert.True(t, errors.Is(img.LoadRemaining(), ErrIntegrity))
		assert.True(t, errors.Is(img.LoadRemaining(), ErrIntegrity), "a retry must not resume the stream")
		assert.True(t, errors.Is(img.Read(), ErrIntegrity))
		assert.Empty(t, img.DataChunks())
	})
	t.Run("encode before read", func(t *testing.T) {
		img, err := NewImage(bytes.NewReader(rawPNG(t, ihdr, NewChunk(ChunkEnd, nil))))
		require.NoError(t, err)
		assert.Error(t, img.Encode(&bytes.Buffer{}, DefaultEncodeOptions()))
	})
}

func TestOpenAndSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(in, stdlibPNG(t, noisyNRGBA(4, 4, 5)), 0o644))

	img, err := Open(in)
	require.NoError(t, err)
	require.NoError(t, img.Read())
	img.Grid().Pix[0] ^= 1
	require.NoError(t, img.Save(out, DefaultEncodeOptions()))

	again, err := Open(out)
	require.NoError(t, err)
	require.NoError(t, again.Read())
	assert.Equal(t, img.Grid().Pix, again.Grid().Pix)

	_, err = Open(filepath.Join(dir, "missing.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// shortWriter accepts n bytes and fails every write after that.
type shortWriter struct {
	n int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		written := w.n
		w.n = 0
		return written, errors.New("disk full")
	}
	w.n -= len(p)
	return len(p), nil
}

func TestEncodeFailureKeepsDataChunks(t *testing.T) {
	img, err := NewImage(bytes.NewReader(stdlibPNG(t, noisyOpaqueRGBA(9, 6, 3))))
	require.NoError(t, err)
	require.NoError(t, img.Read())
	before := img.DataChunks()
	require.Len(t, before, 1)

	opts := DefaultEncodeOptions()
	opts.MaxChunkSize = 16
	assert.Error(t, img.Encode(&shortWriter{n: 60}, opts))
	assert.Equal(t, before, img.DataChunks())

	var out bytes.Buffer
	require.NoError(t, img.Encode(&out, opts))
	assert.Greater(t, len(img.DataChunks()), 1)
}
