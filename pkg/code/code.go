// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

// Package code normalizes human-entered institution codes into a canonical
// ASCII form.
//
// # Usage
//
// School codes are short, unique, human-readable identifiers entered by
// operators (e.g., "SPR-ELEM-01"). Districts paste them from spreadsheets in
// every imaginable casing and with stray accents, so all uniqueness checks
// run against the canonical form produced here.
package code

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonCodeChars matches any sequence of characters outside the canonical alphabet.
	nonCodeChars = regexp.MustCompile(`[^A-Z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// Normalize converts an arbitrary Unicode string into a canonical school code.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: É → E + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to uppercase.
// 4. Replaces separators and special chars with hyphens.
// 5. Collapses multiple hyphens and trims leading/trailing hyphens.
func Normalize(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Uppercase
	result = strings.ToUpper(result)

	// 3. Replace whitespace and special chars with hyphens
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// 4. Clean up hyphenation
	result = nonCodeChars.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
