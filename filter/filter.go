// Package filter implements the PNG scanline filters (None, Sub, Up, Average
// and Paeth) in both directions over a PixelGrid.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"png-steganography/models"
	"png-steganography/oops"
)

type Type byte

const (
	None Type = iota
	Sub
	Up
	Average
	Paeth

	// Adaptive is not a wire value. Passed to Filter it selects, per row,
	// whichever of the five types gives the smallest sum of absolute residuals.
	Adaptive Type = 0xFF
)

const numTypes = 5

var ErrUnknownFilter = errors.New("unknown filter type")

var typeNames = map[Type]string{
	None:     "none",
	Sub:      "sub",
	Up:       "up",
	Average:  "average",
	Paeth:    "paeth",
	Adaptive: "adaptive",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("filter(%d)", byte(t))
}

// ParseType accepts either a filter name or its numeric wire value.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if s == name {
			return t, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= numTypes {
		return 0, oops.New(ErrUnknownFilter, "cannot parse filter %q", s)
	}
	return Type(n), nil
}

// Unfilter reconstructs the pixel grid from filtered scanlines. filtered must
// hold rows*(cols+1) bytes: each row is a filter-type byte followed by cols
// residual bytes.
func Unfilter(filtered []byte, rows, cols, stride int) (*models.PixelGrid, error) {
	if stride < 1 {
		return nil, oops.New(nil, "invalid stride %d", stride)
	}
	if expected := rows * (cols + 1); len(filtered) != expected {
		return nil, oops.New(nil, "filtered data is %d bytes, expected %d", len(filtered), expected)
	}

	grid := models.NewPixelGrid(rows, cols, stride)
	prev := make([]byte, cols)
	for y := 0; y < rows; y++ {
		line := filtered[y*(cols+1) : (y+1)*(cols+1)]
		cur := grid.Row(y)
		copy(cur, line[1:])

		if err := unfilterRow(Type(line[0]), cur, prev, stride); err != nil {
			return nil, oops.New(err, "row %d", y)
		}
		prev = cur
	}
	return grid, nil
}

// Filter produces filtered scanlines for the grid, every row using t (or the
// per-row choice when t is Adaptive).
func Filter(grid *models.PixelGrid, t Type) ([]byte, error) {
	if t != Adaptive && byte(t) >= numTypes {
		return nil, oops.New(ErrUnknownFilter, "cannot filter with type %d", byte(t))
	}
	if grid.Stride < 1 {
		return nil, oops.New(nil, "invalid stride %d", grid.Stride)
	}

	cols := grid.Cols
	out := make([]byte, grid.Rows*(cols+1))
	prev := make([]byte, cols)

	var scratch []byte
	if t == Adaptive {
		scratch = make([]byte, cols)
	}

	for y := 0; y < grid.Rows; y++ {
		cur := grid.Row(y)
		line := out[y*(cols+1) : (y+1)*(cols+1)]

		if t == Adaptive {
			line[0] = byte(chooseType(line[1:], scratch, cur, prev, grid.Stride))
		} else {
			line[0] = byte(t)
			filterRow(t, line[1:], cur, prev, grid.Stride)
		}
		prev = cur
	}
	return out, nil
}

// unfilterRow turns the residuals in cur into pixel bytes, in place.
func unfilterRow(t Type, cur, prev []byte, stride int) error {
	switch t {
	case None:
	case Sub:
		for i := stride; i < len(cur); i++ {
			cur[i] += cur[i-stride]
		}
	case Up:
		for i := range cur {
			cur[i] += prev[i]
		}
	case Average:
		for i := 0; i < stride && i < len(cur); i++ {
			cur[i] += prev[i] / 2
		}
		for i := stride; i < len(cur); i++ {
			cur[i] += byte((int(cur[i-stride]) + int(prev[i])) / 2)
		}
	case Paeth:
		for i := 0; i < stride && i < len(cur); i++ {
			cur[i] += paeth(0, prev[i], 0)
		}
		for i := stride; i < len(cur); i++ {
			cur[i] += paeth(cur[i-stride], prev[i], prev[i-stride])
		}
	default:
		return oops.New(ErrUnknownFilter, "filter type %d", byte(t))
	}
	return nil
}

// filterRow writes the residuals of cur against its predictors into dst.
func filterRow(t Type, dst, cur, prev []byte, stride int) {
	switch t {
	case None:
		copy(dst, cur)
	case Sub:
		for i := range cur {
			if i < stride {
				dst[i] = cur[i]
			} else {
				dst[i] = cur[i] - cur[i-stride]
			}
		}
	case Up:
		for i := range cur {
			dst[i] = cur[i] - prev[i]
		}
	case Average:
		for i := range cur {
			left := 0
			if i >= stride {
				left = int(cur[i-stride])
			}
			dst[i] = cur[i] - byte((left+int(prev[i]))/2)
		}
	case Paeth:
		for i := range cur {
			if i < stride {
				dst[i] = cur[i] - paeth(0, prev[i], 0)
			} else {
				dst[i] = cur[i] - paeth(cur[i-stride], prev[i], prev[i-stride])
			}
		}
	}
}

// chooseType filters cur with every type and keeps the one whose residuals,
// read as signed bytes, have the smallest absolute sum. The winner is left
// in dst.
func chooseType(dst, scratch, cur, prev []byte, stride int) Type {
	best := None
	bestSum := -1
	for t := None; t < numTypes; t++ {
		filterRow(t, scratch, cur, prev, stride)
		sum := 0
		for _, v := range scratch {
			sum += abs(int(int8(v)))
			if bestSum >= 0 && sum >= bestSum {
				break
			}
		}
		if bestSum < 0 || sum < bestSum {
			best, bestSum = t, sum
			copy(dst, scratch)
		}
	}
	return best
}

// paeth returns whichever of left (a), up (b) and upper-left (c) is closest
// to a+b-c, preferring a, then b, then c on ties.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
