package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// SniffMimeHTTP returns the MIME type of an uploaded image by its magic bytes.
func SniffMimeHTTP(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) > 0 {
		return http.DetectContentType(b) // gif, webp, bmp ...
	}
	return "application/octet-stream"
}

// SHA256Hex is the hex digest used as the image key in the analysis log.
func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
