// Package diagrams turns PlantUML markup into image references served by a
// PlantUML server and downloads the rendered images.
package diagrams

import (
	"bytes"
	"compress/flate"
	"fmt"
	"strings"
)

// alphabet is PlantUML's URL-safe base64 variant.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// Encode compresses markup with raw DEFLATE and encodes it with the PlantUML
// alphabet. Identical markup always yields the same string.
func Encode(markup string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := w.Write([]byte(markup)); err != nil {
		return "", fmt.Errorf("compressing markup: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compressing markup: %w", err)
	}
	return encode64(buf.Bytes()), nil
}

// encode64 packs each group of three bytes into four alphabet characters.
// A short tail is zero-padded, as the PlantUML server expects.
func encode64(data []byte) string {
	var b strings.Builder
	b.Grow((len(data) + 2) / 3 * 4)
	for i := 0; i < len(data); i += 3 {
		var b1, b2 byte
		b0 := data[i]
		if i+1 < len(data) {
			b1 = data[i+1]
		}
		if i+2 < len(data) {
			b2 = data[i+2]
		}
		b.WriteByte(alphabet[b0>>2])
		b.WriteByte(alphabet[((b0&0x3)<<4)|(b1>>4)])
		b.WriteByte(alphabet[((b1&0xF)<<2)|(b2>>6)])
		b.WriteByte(alphabet[b2&0x3F])
	}
	return b.String()
}

// Decode reverses Encode. It is used to read back diagram URLs.
func Decode(encoded string) (string, error) {
	var raw []byte
	for i := 0; i < len(encoded); i += 4 {
		var v [4]byte
		for j := 0; j < 4; j++ {
			if i+j >= len(encoded) {
				break
			}
			idx := strings.IndexByte(alphabet, encoded[i+j])
			if idx < 0 {
				return "", fmt.Errorf("invalid character %q at offset %d", encoded[i+j], i+j)
			}
			v[j] = byte(idx)
		}
		raw = append(raw,
			v[0]<<2|v[1]>>4,
			(v[1]&0xF)<<4|v[2]>>2,
			(v[2]&0x3)<<6|v[3],
		)
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return "", fmt.Errorf("decompressing markup: %w", err)
	}
	return out.String(), nil
}
