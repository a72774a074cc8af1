package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// ScanURL returns the public scan page URL for a pet. The QR payload is
// a pure function of the pet ID, which is what makes regeneration safe.
func ScanURL(clientURL string, petID uuid.UUID) string {
	return fmt.Sprintf("%s/scan/%s", strings.TrimRight(clientURL, "/"), petID)
}

// GenerateQRDataURI encodes the given URL as a PNG QR code and returns
// it as a data URI suitable for direct embedding.
func GenerateQRDataURI(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
