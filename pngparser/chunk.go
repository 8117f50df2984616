package pngparser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"png-steganography/oops"
)

// NewChunk builds a chunk with a freshly computed CRC.
func NewChunk(typ string, data []byte) *Chunk {
	return &Chunk{
		Type: typ,
		Data: data,
		CRC:  checksum(typ, data),
	}
}

func checksum(typ string, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return crc.Sum32()
}

// ReadChunk reads one chunk and verifies its CRC. It returns io.EOF, unwrapped,
// when r is exhausted exactly at a chunk boundary; a chunk cut short anywhere
// else is ErrTruncatedChunk.
func ReadChunk(r io.Reader) (*Chunk, error) {
	var head [8]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, readErr(err, "chunk header: got %d of 8 bytes", n)
	}

	length := binary.BigEndian.Uint32(head[:4])
	typ := string(head[4:8])
	if length > maxChunkLength {
		return nil, oops.New(ErrTruncatedChunk, "chunk %q declares length %d", typ, length)
	}

	// Grow as data arrives rather than trusting the declared length up front.
	var data bytes.Buffer
	copied, err := io.CopyN(&data, r, int64(length))
	if err != nil {
		return nil, readErr(err, "chunk %s: payload got %d of %d bytes", typ, copied, length)
	}

	var crcBuf [4]byte
	n, err = io.ReadFull(r, crcBuf[:])
	if err != nil {
		return nil, readErr(err, "chunk %s: CRC got %d of 4 bytes", typ, n)
	}

	stored := binary.BigEndian.Uint32(crcBuf[:])
	computed := checksum(typ, data.Bytes())
	if stored != computed {
		return nil, oops.New(ErrIntegrity, "chunk %s: stored CRC %08x, computed %08x", typ, stored, computed)
	}

	return &Chunk{Type: typ, Data: data.Bytes(), CRC: computed}, nil
}

// WriteChunk serializes c. The CRC written is recomputed from Type and Data;
// c.CRC is ignored.
func WriteChunk(w io.Writer, c *Chunk) error {
	if len(c.Type) != 4 {
		return oops.New(nil, "chunk type %q is not 4 bytes", c.Type)
	}
	if len(c.Data) > maxChunkLength {
		return oops.New(nil, "chunk %s payload of %d bytes is too large", c.Type, len(c.Data))
	}

	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(c.Data)))
	copy(head[4:], c.Type)

	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], checksum(c.Type, c.Data))

	for _, part := range [][]byte{head[:], c.Data, tail[:]} {
		if _, err := w.Write(part); err != nil {
			return oops.New(err, "failed to write chunk %s", c.Type)
		}
	}
	return nil
}

func readErr(err error, format string, args ...interface{}) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return oops.New(ErrTruncatedChunk, format, args...)
	}
	return oops.New(err, format, args...)
}
