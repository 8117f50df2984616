// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"png-steganography/filter"
	"png-steganography/logging"
	"png-steganography/models"
	"png-steganography/pngparser"
	"png-steganography/service"
	"png-steganography/stego"

	"github.com/gin-gonic/gin"
)

type StegoHandler struct {
	service        *service.StegoService
	maxUploadBytes int64
}

func NewStegoHandler(svc *service.StegoService, maxUploadBytes int64) *StegoHandler {
	return &StegoHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PNG steganography API is running",
		"version": "1.0.0",
	})
}

func (h *StegoHandler) InsertMessage(c *gin.Context) {
	if err := h.parseForm(c); err != nil {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	imageData, imageHeader, err := readFormFile(c, "image_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: "Image file is required",
		})
		return
	}

	if !isValidPNGFile(imageHeader.Filename) {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: "Invalid image file format. Only PNG files are supported",
		})
		return
	}

	secretData, secretHeader, err := readFormFile(c, "secret_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.StegoResponse{
			Success: false,
			Message: "Secret file is required",
		})
		return
	}

	var stegoImage bytes.Buffer
	result, err := h.service.Encode(bytes.NewReader(imageData), secretData, filepath.Base(secretHeader.Filename), &stegoImage)
	if err != nil {
		c.JSON(statusFor(err), models.StegoResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to embed secret data: %v", err),
		})
		return
	}

	baseFilename := strings.TrimSuffix(imageHeader.Filename, filepath.Ext(imageHeader.Filename))
	outputFilename := fmt.Sprintf("%s_stego.png", filepath.Base(baseFilename))

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputFilename))

	// Include metadata about the steganography operation
	c.Header("X-Stego-Method", "PNG pixel LSB")
	c.Header("X-Stego-Message", "Secret file successfully embedded in PNG pixel data")
	c.Header("X-Stego-Capacity", fmt.Sprintf("%d", result.Metadata.MaxSecretSize))
	c.Header("X-Stego-PSNR", fmt.Sprintf("%.4f", result.PSNR))

	c.Data(http.StatusOK, "image/png", stegoImage.Bytes())
}

func (h *StegoHandler) ExtractMessage(c *gin.Context) {
	if err := h.parseForm(c); err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	stegoData, stegoHeader, err := readFormFile(c, "stego_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: "Stego image file is required",
		})
		return
	}

	if !isValidPNGFile(stegoHeader.Filename) {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: "Invalid image file format. Only PNG files are supported for extraction",
		})
		return
	}

	secretData, secretFilename, err := h.service.Decode(bytes.NewReader(stegoData))
	if err != nil {
		c.JSON(statusFor(err), models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to extract secret data: %v", err),
		})
		return
	}

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", secretFilename))

	c.Data(http.StatusOK, "application/octet-stream", secretData)
}

// Capacity reports how large a file the uploaded image can carry.
func (h *StegoHandler) Capacity(c *gin.Context) {
	if err := h.parseForm(c); err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	imageData, _, err := readFormFile(c, "image_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: "Image file is required",
		})
		return
	}

	img, err := pngparser.NewImage(bytes.NewReader(imageData))
	if err != nil {
		c.JSON(statusFor(err), models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to read image: %v", err),
		})
		return
	}

	meta := img.Metadata()
	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:       true,
		Width:         meta.Width,
		Height:        meta.Height,
		BitDepth:      meta.BitDepth,
		ColorType:     meta.ColorType,
		PixelFormat:   meta.PixelFormat,
		GridBytes:     meta.GridBytes,
		BitsPerByte:   meta.BitsPerByte,
		MaxSecretSize: meta.MaxSecretSize,
	})
}

func (h *StegoHandler) parseForm(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	return c.Request.ParseMultipartForm(h.maxUploadBytes)
}

func readFormFile(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, err
	}
	return data, header, nil
}

// statusFor separates problems with what the client sent from server faults.
func statusFor(err error) int {
	clientErrors := []error{
		pngparser.ErrBadSignature,
		pngparser.ErrMalformedHeader,
		pngparser.ErrUnsupportedFormat,
		pngparser.ErrIntegrity,
		pngparser.ErrTruncatedChunk,
		pngparser.ErrMissingEnd,
		pngparser.ErrDecompression,
		pngparser.ErrSizeMismatch,
		filter.ErrUnknownFilter,
		stego.ErrCapacity,
		stego.ErrNoHiddenData,
		stego.ErrInvalidFilename,
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	logging.Error().Err(err).Msg("Request failed")
	return http.StatusInternalServerError
}

func isValidPNGFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".png"
}
