// internal/obfuscate/obfuscate.go
//
// XOR/base64 scheme that hides the day's answer fields inside an otherwise
// public JSON response. It deters casual inspection of network traffic; it is
// not encryption. The secret below ships with every client.
//
// Wire format:
//   base64( for i: (jsonCodeUnit[i] ^ keyCodeUnit[i % len(key)]) & 0xFF )
// where key = salt + Secret and the JSON text is ASCII-only (non-ASCII runes
// escaped as \uXXXX), so every code unit fits in one byte.
package obfuscate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// Secret is appended to the daily salt to form the XOR key.
const Secret = "food-for-thought-secret"

// Obfuscate serializes v to canonical JSON and XORs it against salt+Secret.
// The only failure is v not being JSON-serializable.
func Obfuscate(v any, salt string) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("obfuscate: marshal: %w", err)
	}
	text := asciiJSON(raw)
	key := keyUnits(salt)

	out := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = byte((uint16(text[i]) ^ key[i%len(key)]) & 0xFF)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Deobfuscate reverses Obfuscate. It returns nil when cipherText is not valid
// base64 or the recovered text is not valid JSON (including a wrong salt).
func Deobfuscate(cipherText, salt string) json.RawMessage {
	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil || len(data) == 0 {
		return nil
	}
	key := keyUnits(salt)
	plain := make([]byte, len(data))
	for i, b := range data {
		plain[i] = b ^ byte(key[i%len(key)]&0xFF)
	}
	if !json.Valid(plain) {
		return nil
	}
	return json.RawMessage(plain)
}

// DeobfuscateInto decodes the payload straight into out and reports success.
func DeobfuscateInto(cipherText, salt string, out any) bool {
	raw := Deobfuscate(cipherText, salt)
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func keyUnits(salt string) []uint16 {
	return utf16.Encode([]rune(salt + Secret))
}

// asciiJSON rewrites every non-ASCII rune of encoding/json output as a \u
// escape. Such runes only occur inside string literals, so the result is the
// same JSON value.
func asciiJSON(raw []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		raw = raw[size:]
		if r < utf8.RuneSelf {
			buf.WriteByte(byte(r))
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&buf, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&buf, `\u%04x`, r)
	}
	return buf.Bytes()
}
