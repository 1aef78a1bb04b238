// Copyright 2024-2026 Aiku AI

package bot

import (
	"math/rand/v2"
	"strings"
)

// captchaCharset avoids characters that read ambiguously (0/O, 1/I).
const captchaCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewCaptcha returns a fresh challenge code. A new code is generated for
// every login attempt; codes are never reused.
func NewCaptcha(length int) string {
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(captchaCharset[rand.IntN(len(captchaCharset))])
	}
	return b.String()
}

// CaptchaMatches compares user input against the stored challenge,
// ignoring surrounding whitespace and letter case.
func CaptchaMatches(input, challenge string) bool {
	return strings.EqualFold(strings.TrimSpace(input), challenge)
}
