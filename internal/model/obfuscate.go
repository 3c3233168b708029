package model

import (
	"encoding/base64"
	"regexp"
	"unicode/utf8"
)

var base64Text = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// Deobfuscate decodes text stored for hidden items. Anything that is not
// valid base64 of UTF-8 text comes back unchanged.
func Deobfuscate(s string) string {
	if !base64Text.MatchString(s) {
		return s
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(raw) {
		return s
	}
	return string(raw)
}

func Obfuscate(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
