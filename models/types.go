// Package models contain needed models
package models

// StegoResponse is the JSON body returned when an insert fails
type StegoResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	PSNR     float64 `json:"psnr,omitempty"`
	Capacity int     `json:"capacity,omitempty"`
}

// ExtractResponse is the JSON body returned when an extract fails
type ExtractResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	SecretFilename string `json:"secret_filename,omitempty"`
}

// CapacityResponse describes how much an uploaded image can carry
type CapacityResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Width         uint32 `json:"width"`
	Height        uint32 `json:"height"`
	BitDepth      uint8  `json:"bit_depth"`
	ColorType     uint8  `json:"color_type"`
	PixelFormat   string `json:"pixel_format"`
	GridBytes     int    `json:"grid_bytes"`
	BitsPerByte   int    `json:"bits_per_byte"`
	MaxSecretSize int    `json:"max_secret_size"`
}

// ImageMetadata summarises the IHDR of a carrier image
type ImageMetadata struct {
	Width         uint32
	Height        uint32
	BitDepth      uint8
	ColorType     uint8
	PixelFormat   string
	Channels      int
	BytesPerPixel int
	GridBytes     int
	BitsPerByte   int
	MaxSecretSize int
}

// StegoConfig represents configuration for steganography operations
type StegoConfig struct {
	// LSBBits is the number of low bits of each image byte that carry payload.
	LSBBits        int
	SecretFilename string
}
