// Package roman converts Roman numeral strings to integers with strict
// validation: at most three repeats of M/C/X/I, no repetition of V/L/D, and
// only the canonical subtractive pairs (IV, IX, XL, XC, CD, CM).
package roman

import (
	"fmt"
	"regexp"
)

// numeralPattern captures the full validity rules in one anchored expression:
// thousands (M{0,3}), then hundreds (CM|CD|D?C{0,3}), tens (XL|XC|L?X{0,3}),
// and ones (IV|IX|V?I{0,3}).
var numeralPattern = regexp.MustCompile(`^(M{0,3})(CM|CD|D?C{0,3})(XL|XC|L?X{0,3})(IV|IX|V?I{0,3})$`)

var values = map[byte]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

// ToInt converts s to its integer value. The empty string converts to 0.
// Structurally invalid numerals ("A", "VV", "IIII", "IC", ...) return an error.
func ToInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	if !numeralPattern.MatchString(s) {
		return 0, fmt.Errorf("%q is not a valid Roman numeral", s)
	}

	total := 0
	for i := 0; i < len(s); i++ {
		current := values[s[i]]
		next := 0
		if i+1 < len(s) {
			next = values[s[i+1]]
		}
		if current < next {
			total -= current
		} else {
			total += current
		}
	}
	return total, nil
}
