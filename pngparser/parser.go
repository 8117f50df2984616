package pngparser

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"png-steganography/filter"
	"png-steganography/logging"
	"png-steganography/models"
	"png-steganography/oops"
	"png-steganography/stego"
	"png-steganography/utils"

	"github.com/klauspost/compress/zlib"
)

// Image is one PNG datastream: its header, every chunk in file order and,
// once Read, the unfiltered pixel grid. An Image is not safe for concurrent use.
type Image struct {
	Header ImageHeader

	// chunks holds every chunk except IDAT, in file order, starting with IHDR.
	chunks []*Chunk
	// data holds the IDAT chunks in file order.
	data []*Chunk
	grid *models.PixelGrid

	src    *bufio.Reader
	closer io.Closer
	loaded bool

	// loadErr is the error that stopped LoadRemaining, returned again on retry.
	loadErr error
}

// EncodeOptions controls how the pixel grid is written back out.
type EncodeOptions struct {
	Filter       filter.Type
	Level        int
	MaxChunkSize int
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Filter:       filter.Paeth,
		Level:        zlib.DefaultCompression,
		MaxChunkSize: MaxChunkSize,
	}
}

// Open opens the PNG at path, checks its signature and parses IHDR. Nothing
// past IHDR is read until LoadRemaining or Read.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.New(err, "cannot open '%s'", path)
	}

	img, err := newImage(f, f)
	if err != nil {
		f.Close()
		return nil, oops.New(err, "'%s'", path)
	}
	return img, nil
}

// NewImage is Open for an arbitrary reader. If r is an io.Closer it is closed
// once the remaining chunks have been loaded.
func NewImage(r io.Reader) (*Image, error) {
	closer, _ := r.(io.Closer)
	return newImage(r, closer)
}

func newImage(r io.Reader, closer io.Closer) (*Image, error) {
	img := &Image{
		src:    bufio.NewReader(r),
		closer: closer,
	}

	sig := make([]byte, len(Signature))
	if n, err := io.ReadFull(img.src, sig); err != nil {
		return nil, oops.New(ErrBadSignature, "only %d bytes long", n)
	}
	if !bytes.Equal(sig, Signature) {
		return nil, oops.New(ErrBadSignature, "signature is %x", sig)
	}

	ihdr, err := ReadChunk(img.src)
	if err == io.EOF {
		return nil, oops.New(ErrMalformedHeader, "no chunks after signature")
	}
	if err != nil {
		return nil, err
	}

	header, err := parseHeader(ihdr)
	if err != nil {
		return nil, err
	}
	img.Header = header
	img.chunks = append(img.chunks, ihdr)

	logging.Debug().
		Uint32("width", header.Width).
		Uint32("height", header.Height).
		Uint8("bitDepth", header.BitDepth).
		Str("pixelFormat", header.PixelFormat()).
		Msg("Parsed IHDR")

	return img, nil
}

func parseHeader(c *Chunk) (ImageHeader, error) {
	if c.Type != ChunkHeader {
		return ImageHeader{}, oops.New(ErrMalformedHeader, "first chunk is %q, not %s", c.Type, ChunkHeader)
	}
	if len(c.Data) != HeaderLength {
		return ImageHeader{}, oops.New(ErrMalformedHeader, "%s is %d bytes, should be %d", ChunkHeader, len(c.Data), HeaderLength)
	}

	h := ImageHeader{
		Width:             binary.BigEndian.Uint32(c.Data[0:4]),
		Height:            binary.BigEndian.Uint32(c.Data[4:8]),
		BitDepth:          c.Data[8],
		ColorType:         c.Data[9],
		CompressionMethod: c.Data[10],
		FilterMethod:      c.Data[11],
		InterlaceMethod:   c.Data[12],
	}

	if h.Width == 0 || h.Height == 0 {
		return h, oops.New(ErrMalformedHeader, "zero dimension %dx%d", h.Width, h.Height)
	}
	if _, ok := colorChannels[h.ColorType]; !ok {
		return h, oops.New(ErrUnsupportedFormat, "unknown pixel format %d", h.ColorType)
	}
	if h.BitDepth < 8 {
		return h, oops.New(ErrUnsupportedFormat, "bit depth %d (< 8)", h.BitDepth)
	}
	if (h.BitDepth != 8 && h.BitDepth != 16) || (h.ColorType == ColorIndexed && h.BitDepth != 8) {
		return h, oops.New(ErrUnsupportedFormat, "bit depth %d with %s pixels", h.BitDepth, h.PixelFormat())
	}
	if h.InterlaceMethod != 0 {
		return h, oops.New(ErrUnsupportedFormat, "interlace method %d", h.InterlaceMethod)
	}
	if h.CompressionMethod != 0 || h.FilterMethod != 0 {
		return h, oops.New(ErrUnsupportedFormat, "compression method %d, filter method %d", h.CompressionMethod, h.FilterMethod)
	}
	if uint64(h.Height)*(uint64(h.Width)*uint64(h.BytesPerPixel())+1) > maxImageBytes {
		return h, oops.New(ErrUnsupportedFormat, "%dx%d image is too large", h.Width, h.Height)
	}

	return h, nil
}

// LoadRemaining reads every chunk after IHDR, separating IDAT chunks from the
// rest while keeping file order within each group.
func (img *Image) LoadRemaining() error {
	if img.loaded {
		return nil
	}
	if img.loadErr != nil {
		return img.loadErr
	}
	defer img.Close()

	if err := img.readChunks(); err != nil {
		// The stream is part consumed, so later calls must not resume it.
		img.src = nil
		img.loadErr = err
		return err
	}

	img.loaded = true
	img.src = nil

	names := make([]string, len(img.chunks))
	for i, c := range img.chunks {
		names[i] = c.String()
	}
	logging.Debug().
		Strs("chunks", names).
		Int("idatBytes", img.dataBytes()).
		Int("idatChunks", len(img.data)).
		Msg("Read chunks")

	return nil
}

func (img *Image) readChunks() error {
	for {
		c, err := ReadChunk(img.src)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if c.Type == ChunkHeader {
			return oops.New(ErrMalformedHeader, "second %s chunk", ChunkHeader)
		}
		if c.Type == ChunkData {
			img.data = append(img.data, c)
		} else {
			img.chunks = append(img.chunks, c)
		}
	}

	if img.endIndex() < 0 {
		return oops.New(ErrMissingEnd, "read %d chunks", len(img.chunks)+len(img.data))
	}
	return nil
}

// Read loads all chunks, inflates the image data and unfilters it into the
// pixel grid. An image can only be read once.
func (img *Image) Read() error {
	if img.grid != nil {
		return oops.New(nil, "image has already been read")
	}
	if err := img.LoadRemaining(); err != nil {
		return err
	}

	raw, err := InflateRows(img.data, img.Header.FilteredBytes())
	if err != nil {
		return err
	}

	grid, err := filter.Unfilter(raw, img.Header.Rows(), img.Header.Cols(), img.Header.BytesPerPixel())
	if err != nil {
		return err
	}
	img.grid = grid
	return nil
}

// Close releases the underlying reader if it has not been consumed yet.
func (img *Image) Close() error {
	if img.closer == nil {
		return nil
	}
	err := img.closer.Close()
	img.closer = nil
	return err
}

// Grid returns the pixel grid, or nil before Read. Changes to it are written
// out by Encode.
func (img *Image) Grid() *models.PixelGrid {
	return img.grid
}

// Chunks returns the non-IDAT chunks in file order.
func (img *Image) Chunks() []*Chunk {
	return img.chunks
}

func (img *Image) DataChunks() []*Chunk {
	return img.data
}

// BitsPerByte is the number of low bits per image byte used to hide data.
func (img *Image) BitsPerByte() int {
	return stego.BitsForColorType(img.Header.ColorType)
}

// MaxHiddenCapacity is the largest file, in bytes, that can be hidden in the
// image. It is known as soon as IHDR has been parsed.
func (img *Image) MaxHiddenCapacity() int {
	return stego.Capacity(img.Header.GridBytes(), img.BitsPerByte())
}

// Metadata summarises the header and capacity.
func (img *Image) Metadata() models.ImageMetadata {
	h := img.Header
	return models.ImageMetadata{
		Width:         h.Width,
		Height:        h.Height,
		BitDepth:      h.BitDepth,
		ColorType:     h.ColorType,
		PixelFormat:   h.PixelFormat(),
		Channels:      h.Channels(),
		BytesPerPixel: h.BytesPerPixel(),
		GridBytes:     h.GridBytes(),
		BitsPerByte:   img.BitsPerByte(),
		MaxSecretSize: img.MaxHiddenCapacity(),
	}
}

// Encode filters and compresses the pixel grid into fresh IDAT chunks and
// writes the whole datastream to w. The new IDAT chunks go immediately before
// IEND; every other chunk keeps its original position.
func (img *Image) Encode(w io.Writer, opts EncodeOptions) error {
	if img.grid == nil {
		return oops.New(nil, "image has not been read yet")
	}
	if opts.MaxChunkSize == 0 {
		opts.MaxChunkSize = MaxChunkSize
	}

	filtered, err := filter.Filter(img.grid, opts.Filter)
	if err != nil {
		return err
	}
	payloads, err := DeflateRows(filtered, opts.MaxChunkSize, opts.Level)
	if err != nil {
		return err
	}

	data := make([]*Chunk, len(payloads))
	for i, p := range payloads {
		data[i] = NewChunk(ChunkData, p)
	}

	if _, err := w.Write(Signature); err != nil {
		return oops.New(err, "failed to write signature")
	}
	end := img.endIndex()
	for i, c := range img.chunks {
		if i == end {
			for _, d := range data {
				if err := WriteChunk(w, d); err != nil {
					return err
				}
			}
		}
		if err := WriteChunk(w, c); err != nil {
			return err
		}
	}
	img.data = data

	logging.Debug().
		Str("filter", opts.Filter.String()).
		Int("idatChunks", len(img.data)).
		Int("idatBytes", img.dataBytes()).
		Msg("Encoded image")

	return nil
}

// Save encodes the image in memory and then replaces path atomically, so a
// failure never leaves a partial file behind.
func (img *Image) Save(path string, opts EncodeOptions) error {
	var buf bytes.Buffer
	if err := img.Encode(&buf, opts); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func (img *Image) endIndex() int {
	for i, c := range img.chunks {
		if c.Type == ChunkEnd {
			return i
		}
	}
	return -1
}

func (img *Image) dataBytes() int {
	total := 0
	for _, c := range img.data {
		total += c.Length()
	}
	return total
}
