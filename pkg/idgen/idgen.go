// Package idgen generates customer-facing booking references.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix is prepended to every booking reference.
const Prefix = "CUSS-"

// Alphabet leaves out 0/O and 1/I so references survive being read out
// over the phone or typed from a WhatsApp screenshot.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the number of random characters after the prefix.
const Length = 8

// BookingRef returns a new reference such as "CUSS-7KQ2MXHA".
func BookingRef() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return Prefix + id, nil
}

// IsBookingRef reports whether s has the shape of a booking reference.
func IsBookingRef(s string) bool {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok || len(rest) != Length {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
