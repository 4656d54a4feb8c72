// Package credentials persists the user's model API key between sessions.
//
// Stored keys are XOR-obfuscated and base64 encoded. This keeps them out of
// casual view but is not encryption: anyone with the stored value and this
// package can recover the key.
package credentials

import "encoding/base64"

const obfuscationKey = "umlgen-secure-key-2024"

// Obfuscate scrambles credential for storage. The empty string maps to the
// empty string.
func Obfuscate(credential string) string {
	if credential == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString(xor([]byte(credential)))
}

// Reveal reverses Obfuscate. Malformed input yields the empty string.
func Reveal(stored string) string {
	if stored == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return ""
	}
	return string(xor(raw))
}

func xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ obfuscationKey[i%len(obfuscationKey)]
	}
	return out
}
