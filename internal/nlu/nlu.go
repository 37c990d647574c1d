// Package nlu maps recognized command text to structured intents using a
// fixed, ordered pattern grammar. The vocabulary is the narrow set of
// inventory narration commands: entering spaces and elements, setting
// attributes, and controlling photo capture and recording.
package nlu

import (
	"regexp"
	"strings"
)

// Intent is the categorized action a recognized command maps to.
type Intent string

const (
	IntentEnterSpace     Intent = "enter_space"
	IntentEnterElement   Intent = "enter_element"
	IntentAddElements    Intent = "add_elements"
	IntentSetAttribute   Intent = "set_attribute"
	IntentCapturePhoto   Intent = "capture_photo"
	IntentStartRecording Intent = "start_recording"
	IntentStopRecording  Intent = "stop_recording"
	IntentUnrecognized   Intent = "unrecognized"
)

// Command is the result of parsing one final transcription. Attribute names
// the attribute kind when Intent is IntentSetAttribute. Raw always preserves
// the original text verbatim.
type Command struct {
	Intent    Intent
	Attribute string
	Entity    string
	Raw       string
}

type rule struct {
	re        *regexp.Regexp
	intent    Intent
	attribute string
	rawValue  bool // keep the capture unmodified (numeric quantities)
}

// Parser matches command text against the grammar. Rules are tried in
// priority order; the first match wins and later rules are not consulted.
type Parser struct {
	rules []rule
}

var wsRe = regexp.MustCompile(`\s+`)

// connectors stay lowercase when capitalizing extracted names, except as the
// first word.
var connectors = map[string]struct{}{
	"de": {}, "del": {}, "la": {}, "el": {}, "los": {}, "las": {},
	"con": {}, "y": {}, "a": {},
}

// trailingFillers are stripped off the end of extracted names.
var trailingFillers = []string{
	"por favor", "gracias", "ahora", "ya", "también", "favor", "porfavor",
}

func NewParser() *Parser {
	p := &Parser{}

	// Capture and recording controls are exact commands, anchored so a
	// stray "foto" inside a name never fires them.
	p.add(`^(?:tomar|sacar|capturar)\s+(?:una\s+)?foto$`, IntentCapturePhoto, "", false)
	p.add(`^foto$`, IntentCapturePhoto, "", false)
	p.add(`^(?:iniciar|comenzar|empezar)\s+(?:la\s+)?grabación$`, IntentStartRecording, "", false)
	p.add(`^grabar(?:\s+video)?$`, IntentStartRecording, "", false)
	p.add(`^(?:detener|parar|terminar)\s+(?:la\s+)?grabación$`, IntentStopRecording, "", false)

	// Element enumeration. Must precede the space rules; "el espacio tiene
	// dos sillas" would otherwise match the bare espacio pattern. The raw
	// capture goes to ExtractElements untouched.
	p.add(`el\s+espacio\s+tiene\s+(.+)`, IntentAddElements, "", true)

	// Space entry.
	for _, pat := range []string{
		`ingresar\s+a\s+espacio\s+(.+)`,
		`entrar\s+al\s+espacio\s+(.+)`,
		`abrir\s+espacio\s+(.+)`,
		`entrar\s+a\s+espacio\s+(.+)`,
		`ir\s+al\s+espacio\s+(.+)`,
		`espacio\s+(.+)`,
	} {
		p.add(pat, IntentEnterSpace, "", false)
	}

	// Element entry.
	for _, pat := range []string{
		`ingresar\s+a\s+elemento\s+(.+)`,
		`entrar\s+al\s+elemento\s+(.+)`,
		`abrir\s+elemento\s+(.+)`,
		`agregar\s+(?:el\s+)?(.+)`,
		`registrar\s+(?:el\s+)?(.+)`,
		`elemento\s+(.+)`,
		`item\s+(.+)`,
	} {
		p.add(pat, IntentEnterElement, "", false)
	}

	// Attribute kinds, in fixed priority order.
	attrs := []struct {
		kind     string
		raw      bool
		patterns []string
	}{
		{"color", false, []string{
			`(?:de\s+)?color\s+(.+)`,
			`es\s+(?:de\s+)?color\s+(.+)`,
			`(?:es|tiene)\s+(negro|blanco|rojo|azul|verde|amarillo|gris|plateado|dorado)`,
		}},
		{"marca", false, []string{
			`marca\s+(.+)`,
			`de\s+marca\s+(.+)`,
			`es\s+(?:de\s+)?marca\s+(.+)`,
		}},
		{"modelo", false, []string{
			`modelo\s+(.+)`,
			`es\s+(?:el\s+)?modelo\s+(.+)`,
		}},
		{"cantidad", true, []string{
			`(?:hay|tiene|son)\s+(\d+)`,
			`cantidad\s+(?:de\s+)?(\d+)`,
			`(\d+)\s+unidades?`,
		}},
		{"estado", false, []string{
			`estado\s+(.+)`,
			`está\s+(.+)`,
			`condición\s+(.+)`,
			`(?:es|está)\s+(nuevo|usado|dañado|excelente|bueno|regular|malo)`,
		}},
		{"ubicación", false, []string{
			`ubicado\s+en\s+(.+)`,
			`está\s+en\s+(.+)`,
			`se\s+encuentra\s+en\s+(.+)`,
			`ubicación\s+(.+)`,
		}},
		{"descripción", false, []string{
			`descripción\s+(.+)`,
			`detalles?\s+(.+)`,
			`es\s+un(?:a)?\s+(.+)`,
		}},
	}
	for _, a := range attrs {
		for _, pat := range a.patterns {
			p.add(pat, IntentSetAttribute, a.kind, a.raw)
		}
	}

	return p
}

func (p *Parser) add(pattern string, intent Intent, attribute string, rawValue bool) {
	p.rules = append(p.rules, rule{
		re:        regexp.MustCompile(pattern),
		intent:    intent,
		attribute: attribute,
		rawValue:  rawValue,
	})
}

// Parse lowers and whitespace-normalizes text, then returns the first
// matching rule's command. No match yields IntentUnrecognized with the
// original text preserved.
func (p *Parser) Parse(text string) Command {
	norm := wsRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
	for _, r := range p.rules {
		m := r.re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		cmd := Command{Intent: r.intent, Attribute: r.attribute, Raw: text}
		if len(m) > 1 {
			value := strings.TrimSpace(m[1])
			if r.rawValue {
				cmd.Entity = value
			} else {
				cmd.Entity = CapitalizeName(stripTrailingFillers(value))
			}
		}
		return cmd
	}
	return Command{Intent: IntentUnrecognized, Raw: text}
}

// CapitalizeName title-cases each word except grammatical connectors, which
// stay lowercase unless they open the name.
func CapitalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if i > 0 {
			if _, ok := connectors[strings.ToLower(w)]; ok {
				words[i] = strings.ToLower(w)
				continue
			}
		}
		words[i] = capitalizeWord(w)
	}
	return strings.Join(words, " ")
}

func capitalizeWord(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return w
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

func stripTrailingFillers(text string) string {
	text = strings.TrimSpace(text)
	for _, w := range trailingFillers {
		if strings.HasSuffix(strings.ToLower(text), w) {
			text = strings.TrimSpace(text[:len(text)-len(w)])
		}
	}
	return text
}
