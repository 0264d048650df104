package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// DataURL renders the given content as a PNG QR code wrapped in a data URL,
// ready to drop into an <img> tag.
func DataURL(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("qr content is empty")
	}

	png, err := qrcode.Encode(content, qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
