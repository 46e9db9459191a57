package qrrender

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/mdp/qrterminal/v3"
	goqrcode "github.com/skip2/go-qrcode"
)

const (
	FormatRaw = "raw"
	FormatPNG = "png"

	pngSize = 256
)

// Renderer turns a QR payload into what the HTTP response carries.
type Renderer struct {
	format string
}

// New returns a renderer for format: raw keeps the payload, png returns a
// data URL with the image.
func New(format string) (*Renderer, error) {
	f := strings.ToLower(format)
	switch f {
	case FormatRaw, FormatPNG:
		return &Renderer{format: f}, nil
	case "":
		return &Renderer{format: FormatRaw}, nil
	}
	return nil, fmt.Errorf("qrrender: unknown format %q", format)
}

// Render returns the response value for payload.
func (r *Renderer) Render(payload string) (string, error) {
	if r.format == FormatRaw {
		return payload, nil
	}
	return DataURL(payload)
}

// DataURL encodes payload as a PNG QR code inside a data URL.
func DataURL(payload string) (string, error) {
	png, err := goqrcode.Encode(payload, goqrcode.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("qrrender: encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PrintTerminal draws payload as half-block characters, for operators
// linking from a console.
func PrintTerminal(w io.Writer, payload string) {
	qrterminal.GenerateHalfBlock(payload, qrterminal.L, w)
}
