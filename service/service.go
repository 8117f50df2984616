// Package service runs whole encode and decode operations on PNG carriers.
package service

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"png-steganography/logging"
	"png-steganography/models"
	"png-steganography/oops"
	"png-steganography/pngparser"
	"png-steganography/quality"
	"png-steganography/stego"
	"png-steganography/utils"
)

type StegoService struct {
	Options pngparser.EncodeOptions
	// Filler, if set, supplies padding bits instead of the default generator.
	Filler io.Reader
	// PSNRThreshold is the distortion floor below which an encode is logged
	// as a warning.
	PSNRThreshold float64
}

func NewStegoService(opts pngparser.EncodeOptions) *StegoService {
	return &StegoService{
		Options:       opts,
		PSNRThreshold: quality.MinPSNR,
	}
}

type EncodeResult struct {
	Metadata   models.ImageMetadata
	Hidden     int
	PSNR       float64
	Acceptable bool
}

// Encode hides secretData under filename in the PNG read from cover and
// writes the resulting PNG to out. Nothing is written to out on failure.
func (s *StegoService) Encode(cover io.Reader, secretData []byte, filename string, out io.Writer) (*EncodeResult, error) {
	img, err := pngparser.NewImage(cover)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	var buf bytes.Buffer
	result, err := s.embed(img, secretData, filename, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := buf.WriteTo(out); err != nil {
		return nil, oops.New(err, "failed to write stego image")
	}
	return result, nil
}

// EncodeFile hides the file at secretPath in the PNG at coverPath and writes
// the result to outPath. The hidden name is the base name of secretPath.
func (s *StegoService) EncodeFile(coverPath, secretPath, outPath string) (*EncodeResult, error) {
	img, err := pngparser.Open(coverPath)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	info, err := os.Stat(secretPath)
	if err != nil {
		return nil, oops.New(err, "cannot open '%s'", secretPath)
	}
	if capacity := img.MaxHiddenCapacity(); info.Size() > int64(capacity) {
		return nil, oops.New(stego.ErrCapacity, "'%s' is %d bytes, maximum for '%s' is %d", secretPath, info.Size(), coverPath, capacity)
	}

	secretData, err := os.ReadFile(secretPath)
	if err != nil {
		return nil, oops.New(err, "failed to read '%s'", secretPath)
	}

	var buf bytes.Buffer
	result, err := s.embed(img, secretData, filepath.Base(secretPath), &buf)
	if err != nil {
		return nil, err
	}
	if err := utils.WriteFileAtomic(outPath, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *StegoService) embed(img *pngparser.Image, secretData []byte, filename string, out io.Writer) (*EncodeResult, error) {
	if err := stego.ValidateFilename(filename); err != nil {
		return nil, err
	}
	if capacity := img.MaxHiddenCapacity(); len(secretData) > capacity {
		return nil, oops.New(stego.ErrCapacity, "%d bytes to hide, maximum is %d", len(secretData), capacity)
	}

	if err := img.Read(); err != nil {
		return nil, err
	}

	cover := img.Grid().Clone()
	lsb := s.newLSB(img.BitsPerByte(), filename)
	if err := lsb.Embed(img.Grid(), secretData); err != nil {
		return nil, err
	}
	psnr := quality.CalculatePSNR(cover, img.Grid())
	acceptable := quality.ValidatePSNR(psnr, s.PSNRThreshold)
	if !acceptable {
		logging.Warn().
			Float64("psnr", psnr).
			Float64("threshold", s.PSNRThreshold).
			Msg("Stego image distortion is above the acceptable level")
	}

	if err := img.Encode(out, s.Options); err != nil {
		return nil, err
	}

	logging.Info().
		Str("filename", filename).
		Int("hidden", len(secretData)).
		Int("capacity", img.MaxHiddenCapacity()).
		Float64("psnr", psnr).
		Msg("Embedded file")

	return &EncodeResult{
		Metadata:   img.Metadata(),
		Hidden:     len(secretData),
		PSNR:       psnr,
		Acceptable: acceptable,
	}, nil
}

// Decode extracts a hidden file from the PNG read from r.
func (s *StegoService) Decode(r io.Reader) ([]byte, string, error) {
	img, err := pngparser.NewImage(r)
	if err != nil {
		return nil, "", err
	}
	defer img.Close()
	return s.extract(img)
}

// DecodeFile extracts the file hidden in the PNG at path. It is written to
// outPath, or to the hidden file's base name in the current directory when
// outPath is empty. The path written is returned.
func (s *StegoService) DecodeFile(path, outPath string) (string, int, error) {
	img, err := pngparser.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer img.Close()

	secretData, filename, err := s.extract(img)
	if err != nil {
		return "", 0, err
	}

	if outPath == "" {
		outPath = utils.SafeBaseName(filename)
		if outPath == "" {
			return "", 0, oops.New(stego.ErrInvalidFilename, "hidden filename %q is not usable, give an output path", filename)
		}
	}

	if err := utils.WriteFileAtomic(outPath, secretData, 0o644); err != nil {
		return "", 0, err
	}
	return outPath, len(secretData), nil
}

func (s *StegoService) extract(img *pngparser.Image) ([]byte, string, error) {
	if err := img.Read(); err != nil {
		return nil, "", err
	}

	secretData, filename, err := s.newLSB(img.BitsPerByte(), "").Extract(img.Grid())
	if err != nil {
		return nil, "", err
	}

	logging.Info().
		Str("filename", filename).
		Int("length", len(secretData)).
		Msg("Extracted hidden file")

	return secretData, filename, nil
}

// Inspect reads every chunk of the PNG at path without decompressing it.
func (s *StegoService) Inspect(path string) (*pngparser.Image, error) {
	img, err := pngparser.Open(path)
	if err != nil {
		return nil, err
	}
	if err := img.LoadRemaining(); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *StegoService) newLSB(bits int, filename string) *stego.LSBSteganography {
	lsb := stego.NewLSBSteganography(&models.StegoConfig{
		LSBBits:        bits,
		SecretFilename: filename,
	})
	if s.Filler != nil {
		lsb.WithFiller(s.Filler)
	}
	return lsb
}
