package pngparser

import "fmt"

const (
	ChunkHeader = "IHDR"
	ChunkData   = "IDAT"
	ChunkEnd    = "IEND"

	// HeaderLength is the fixed payload length of IHDR.
	HeaderLength = 13

	// MaxChunkSize bounds each regenerated IDAT payload.
	MaxChunkSize = 1 << 14

	// maxChunkLength is the largest length a chunk may declare.
	maxChunkLength = 1<<31 - 1
	// maxImageBytes bounds the inflated image data we are willing to hold.
	maxImageBytes = 1<<31 - 1
)

// Signature is the fixed 8-byte prefix of every PNG datastream.
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	ColorGreyscale      uint8 = 0
	ColorRGB            uint8 = 2
	ColorIndexed        uint8 = 3
	ColorGreyscaleAlpha uint8 = 4
	ColorRGBA           uint8 = 6
)

var colorChannels = map[uint8]int{
	ColorGreyscale:      1,
	ColorRGB:            3,
	ColorIndexed:        1,
	ColorGreyscaleAlpha: 2,
	ColorRGBA:           4,
}

var colorNames = map[uint8]string{
	ColorGreyscale:      "greyscale",
	ColorRGB:            "RGB",
	ColorIndexed:        "indexed",
	ColorGreyscaleAlpha: "greyscale + alpha",
	ColorRGBA:           "RGB-alpha",
}

// Chunk is one length-prefixed, CRC-protected record. CRC always matches
// Type and Data: it is checked when read and computed when constructed.
type Chunk struct {
	Type string
	Data []byte
	CRC  uint32
}

func (c *Chunk) Length() int {
	return len(c.Data)
}

func (c *Chunk) String() string {
	return fmt.Sprintf("%s (%d bytes)", c.Type, len(c.Data))
}

// ImageHeader holds the IHDR fields.
type ImageHeader struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         uint8
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// Channels is the number of samples per pixel, or 0 for an unknown color type.
func (h ImageHeader) Channels() int {
	return colorChannels[h.ColorType]
}

func (h ImageHeader) BytesPerPixel() int {
	return h.Channels() * int(h.BitDepth) / 8
}

// Rows is the number of scanlines.
func (h ImageHeader) Rows() int {
	return int(h.Height)
}

// Cols is the number of pixel bytes per scanline, excluding the filter byte.
func (h ImageHeader) Cols() int {
	return int(h.Width) * h.BytesPerPixel()
}

// GridBytes is the size of the unfiltered pixel grid.
func (h ImageHeader) GridBytes() int {
	return h.Rows() * h.Cols()
}

// FilteredBytes is the inflated size of the IDAT stream.
func (h ImageHeader) FilteredBytes() int {
	return h.Rows() * (h.Cols() + 1)
}

func (h ImageHeader) PixelFormat() string {
	if name, ok := colorNames[h.ColorType]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%d)", h.ColorType)
}
