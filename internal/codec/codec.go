// Package codec packs a whole board into a URL-safe token so it can travel
// inside a link without any server.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"melina-board/internal/models"
)

var ErrMalformedToken = errors.New("malformed board token")

// MaxDecodedSize caps the inflated payload of a token.
const MaxDecodedSize = 8 << 20

// Encode serializes d as JSON, deflates it and returns unpadded URL-safe base64.
// A document that fails Validate is rejected, so whatever Encode returns
// decodes back to d.
func Encode(d models.Document) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("encode board: %w", err)
	}
	data, err := models.MarshalDocument(d)
	if err != nil {
		return "", fmt.Errorf("encode board: %w", err)
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("encode board: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("encode board: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("encode board: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Tokens in the standard base64 alphabet, with or
// without padding, are accepted too. Any failure returns an error wrapping
// ErrMalformedToken and no document.
func Decode(token string) (models.Document, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	compressed, err := decodeBase64(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, MaxDecodedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(data) > MaxDecodedSize {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrMalformedToken, MaxDecodedSize)
	}

	d, err := models.UnmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if d == nil {
		d = models.Document{}
	}
	return d, nil
}

func decodeBase64(token string) ([]byte, error) {
	token = strings.TrimRight(token, "=")
	if strings.ContainsAny(token, "+/") {
		return base64.RawStdEncoding.DecodeString(token)
	}
	return base64.RawURLEncoding.DecodeString(token)
}
