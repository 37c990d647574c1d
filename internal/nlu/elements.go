package nlu

import (
	"regexp"
	"strconv"
	"strings"
)

// ElementSpec is one element mentioned in a multi-element enumeration such
// as "el espacio tiene 2 sillas y una mesa roja".
type ElementSpec struct {
	Name   string
	Amount int
	Color  string
}

var numberWords = map[string]int{
	"un": 1, "una": 1, "uno": 1,
	"dos": 2, "tres": 3, "cuatro": 4,
	"cinco": 5, "seis": 6, "siete": 7,
	"ocho": 8, "nueve": 9, "diez": 10,
}

// Stems so that gendered forms ("rojo"/"roja") both match. Order is part of
// the contract: the first stem found wins, so a part naming two colors
// always resolves the same way.
var colorStems = []struct {
	stem, canonical string
}{
	{"roj", "rojo"},
	{"azul", "azul"},
	{"verd", "verde"},
	{"blanc", "blanco"},
	{"negr", "negro"},
	{"gris", "gris"},
	{"amarill", "amarillo"},
}

// Longer number words come first in the alternation so "una" is never
// consumed as "un" plus a stray "a".
const numberAlt = `\d+|una|uno|un|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez`

var (
	splitRe  = regexp.MustCompile(`,|\s+y\s+`)
	amountRe = regexp.MustCompile(`(` + numberAlt + `)`)
	// \w is ASCII-only in RE2; names like "lámpara" need \p{L}.
	nameRe = regexp.MustCompile(`(?:` + numberAlt + `)?\s*([\p{L}0-9]+)`)
)

// ExtractElements splits an enumeration command into element specs with
// amounts and optional colors. Unparseable parts default to amount 1.
func ExtractElements(command string) []ElementSpec {
	command = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(command), "el espacio tiene", ""))

	var elements []ElementSpec
	for _, part := range splitRe.Split(command, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		amount := 1
		if m := amountRe.FindStringSubmatch(part); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				amount = n
			} else if n, ok := numberWords[m[1]]; ok {
				amount = n
			}
		}

		color := ""
		for _, c := range colorStems {
			if strings.Contains(part, c.stem) {
				color = c.canonical
				break
			}
		}

		name := "elemento"
		if m := nameRe.FindStringSubmatch(part); m != nil {
			name = m[1]
		}

		elements = append(elements, ElementSpec{Name: name, Amount: amount, Color: color})
	}
	return elements
}
