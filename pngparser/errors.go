package pngparser

import "errors"

var (
	ErrBadSignature      = errors.New("not a PNG file")
	ErrMalformedHeader   = errors.New("malformed IHDR chunk")
	ErrUnsupportedFormat = errors.New("unsupported PNG format")
	ErrIntegrity         = errors.New("chunk CRC mismatch")
	ErrTruncatedChunk    = errors.New("truncated chunk")
	ErrMissingEnd        = errors.New("missing IEND chunk")
	ErrDecompression     = errors.New("image data decompression failed")
	ErrSizeMismatch      = errors.New("inflated image data has the wrong size")
)
