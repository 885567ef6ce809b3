package model

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns name in Unicode NFC form.
// Names are compared and sorted byte-wise, so decomposed input
// (e.g. "Й" as "И" + combining breve) must be composed first.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// ChatName builds the synthesized name for the chat at the given ordinal.
func ChatName(prefix string, ordinal int) string {
	return fmt.Sprintf("%s%d", prefix, ordinal)
}
