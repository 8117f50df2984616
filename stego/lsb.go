// Package stego to implement LSB
package stego

import (
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"strings"
	"time"

	"png-steganography/models"
	"png-steganography/oops"
)

const (
	// Identifier marks an image that carries a hidden file.
	Identifier = "SECRET"
	// LengthBytes is the size of the big-endian content length field.
	LengthBytes = 4
	// FilenameBytes is the width of the space-left-padded filename field.
	FilenameBytes = 30
	// HeaderOverhead is the size of everything embedded before the content.
	HeaderOverhead = len(Identifier) + LengthBytes + FilenameBytes

	BitsInByte = 8
)

var (
	ErrCapacity        = errors.New("hidden file does not fit in the image")
	ErrNoHiddenData    = errors.New("there is no hidden data in this image")
	ErrInvalidFilename = errors.New("invalid hidden filename")
)

// BitsForColorType is how many low bits of each image byte carry payload.
// Indexed images get one bit since a palette index change can move a pixel
// to an unrelated color.
func BitsForColorType(colorType uint8) int {
	if colorType == 3 {
		return 1
	}
	return 2
}

// Capacity is the largest content size that fits in gridBytes image bytes
// after the header, floored to whole bytes. It is never negative.
func Capacity(gridBytes, bitsPerByte int) int {
	capacity := gridBytes*bitsPerByte/BitsInByte - HeaderOverhead
	if capacity < 0 {
		return 0
	}
	return capacity
}

type LSBSteganography struct {
	config *models.StegoConfig
	// filler supplies the bits written after the payload.
	filler io.Reader
}

func NewLSBSteganography(config *models.StegoConfig) *LSBSteganography {
	return &LSBSteganography{
		config: config,
		filler: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithFiller replaces the source of padding bits, e.g. with a seeded
// generator for reproducible output.
func (lsb *LSBSteganography) WithFiller(r io.Reader) *LSBSteganography {
	lsb.filler = r
	return lsb
}

func (lsb *LSBSteganography) CalculateCapacity(grid *models.PixelGrid) int {
	return Capacity(grid.Len(), lsb.config.LSBBits)
}

// Embed writes the header and secretData into the low bits of the grid, in
// place, and fills the rest of the grid's low bits from the filler. Nothing
// is modified if the data or its filename is rejected.
func (lsb *LSBSteganography) Embed(grid *models.PixelGrid, secretData []byte) error {
	bits := lsb.config.LSBBits
	if err := validateBits(bits); err != nil {
		return err
	}

	filename := lsb.config.SecretFilename
	if err := ValidateFilename(filename); err != nil {
		return err
	}

	// Compare against the raw grid size so an image too small for even the
	// header rejects an empty file too.
	if HeaderOverhead+len(secretData) > grid.Len()*bits/BitsInByte {
		return oops.New(ErrCapacity, "%d bytes to hide, maximum is %d", len(secretData), lsb.CalculateCapacity(grid))
	}

	// Prepare payload: identifier + data length + padded filename + data
	payload := make([]byte, 0, HeaderOverhead+len(secretData))
	payload = append(payload, Identifier...)
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(secretData)))
	payload = append(payload, strings.Repeat(" ", FilenameBytes-len(filename))...)
	payload = append(payload, filename...)
	payload = append(payload, secretData...)

	onebyte := BitsInByte / bits
	span := len(payload) * onebyte

	filler := make([]byte, grid.Len()-span)
	if _, err := io.ReadFull(lsb.filler, filler); err != nil {
		return oops.New(err, "failed to read %d filler bytes", len(filler))
	}

	mask := byte(1<<bits - 1)
	for i := range grid.Pix {
		var value byte
		if i < span {
			shift := (onebyte - 1 - i%onebyte) * bits
			value = payload[i/onebyte] >> shift
		} else {
			value = filler[i-span]
		}
		grid.Pix[i] = grid.Pix[i]&^mask | value&mask
	}

	return nil
}

// Extract reads back a file hidden by Embed, returning its contents and name.
func (lsb *LSBSteganography) Extract(grid *models.PixelGrid) ([]byte, string, error) {
	bits := lsb.config.LSBBits
	if err := validateBits(bits); err != nil {
		return nil, "", err
	}

	r := &bitReader{pix: grid.Pix, bits: bits}

	identifier, ok := r.next(len(Identifier))
	if !ok || string(identifier) != Identifier {
		return nil, "", oops.New(ErrNoHiddenData, "identifier not found")
	}

	lengthField, ok := r.next(LengthBytes)
	if !ok {
		return nil, "", oops.New(ErrNoHiddenData, "image too small for a length field")
	}
	dataLen := binary.BigEndian.Uint32(lengthField)

	filenameField, ok := r.next(FilenameBytes)
	if !ok {
		return nil, "", oops.New(ErrNoHiddenData, "image too small for a filename field")
	}
	filename := strings.TrimSpace(string(filenameField))

	if capacity := lsb.CalculateCapacity(grid); int64(dataLen) > int64(capacity) {
		return nil, "", oops.New(ErrNoHiddenData, "declared length %d exceeds capacity %d", dataLen, capacity)
	}

	secretData, _ := r.next(int(dataLen))
	return secretData, filename, nil
}

// ValidateFilename checks that name can be stored in the filename field and
// read back unchanged.
func ValidateFilename(name string) error {
	if name == "" {
		return oops.New(ErrInvalidFilename, "filename is empty")
	}
	if len(name) > FilenameBytes {
		return oops.New(ErrCapacity, "filename '%s' is %d characters, maximum is %d", name, len(name), FilenameBytes)
	}
	for i := 0; i < len(name); i++ {
		if name[i] >= 0x80 || name[i] < 0x20 {
			return oops.New(ErrInvalidFilename, "filename '%s' must be printable ASCII", name)
		}
	}
	if strings.TrimSpace(name) != name {
		return oops.New(ErrInvalidFilename, "filename '%s' has surrounding spaces", name)
	}
	return nil
}

func validateBits(bits int) error {
	if bits < 1 || bits > BitsInByte || BitsInByte%bits != 0 {
		return oops.New(nil, "%d bits per byte does not divide a byte evenly", bits)
	}
	return nil
}

// bitReader reassembles payload bytes from the low bits of consecutive image
// bytes, most significant group first.
type bitReader struct {
	pix  []byte
	bits int
	pos  int
}

func (r *bitReader) next(n int) ([]byte, bool) {
	onebyte := BitsInByte / r.bits
	if n > (len(r.pix)-r.pos)/onebyte {
		return nil, false
	}

	mask := byte(1<<r.bits - 1)
	out := make([]byte, n)
	for i := range out {
		var b byte
		for j := 0; j < onebyte; j++ {
			b = b<<r.bits | r.pix[r.pos]&mask
			r.pos++
		}
		out[i] = b
	}
	return out, true
}
