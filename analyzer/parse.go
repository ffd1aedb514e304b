package analyzer

import (
	"encoding/json"
	"strings"
)

// classificationDoc is the wire shape of one classification block. Field
// validation happens after parsing; here only the JSON shape matters.
type classificationDoc struct {
	Capabilities        []string `json:"capabilities"`
	InputType           string   `json:"input_type"`
	Complexity          string   `json:"complexity"`
	MultiAgent          *bool    `json:"multi_agent"`
	StrategyHint        string   `json:"strategy_hint"`
	Dependencies        []string `json:"dependencies"`
	ContextRequirements []string `json:"context_requirements"`
}

// extractClassification finds the first well-formed classification block
// in a reply. Attempts, in order: parse the whole reply, a ```json fenced
// block, a bare ``` fenced block, and finally the first balanced JSON
// object mentioning "capabilities". Everything else in the reply is
// ignored.
func extractClassification(reply string) (classificationDoc, bool) {
	if doc, ok := tryParseClassification(reply); ok {
		return doc, true
	}

	if block, ok := fencedBlock(reply, "```json"); ok {
		if doc, ok := tryParseClassification(block); ok {
			return doc, true
		}
	}

	if block, ok := fencedBlock(reply, "```"); ok {
		if doc, ok := tryParseClassification(block); ok {
			return doc, true
		}
	}

	if block, ok := balancedObject(reply); ok {
		if doc, ok := tryParseClassification(block); ok {
			return doc, true
		}
	}

	return classificationDoc{}, false
}

// tryParseClassification parses a candidate block. A block without a
// capabilities key is not a classification, whatever else it contains.
func tryParseClassification(s string) (classificationDoc, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.HasPrefix(s, "{") {
		return classificationDoc{}, false
	}

	// The capabilities key is what distinguishes a classification block
	// from any other JSON object in the reply.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return classificationDoc{}, false
	}
	if _, ok := probe["capabilities"]; !ok {
		return classificationDoc{}, false
	}

	var doc classificationDoc
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return classificationDoc{}, false
	}
	return doc, true
}

// fencedBlock extracts the content of the first code fence opened by the
// given marker. For the bare "```" marker a language tag on the opening
// line is skipped.
func fencedBlock(s, marker string) (string, bool) {
	idx := strings.Index(s, marker)
	if idx == -1 {
		return "", false
	}
	start := idx + len(marker)
	if marker == "```" {
		if nl := strings.Index(s[start:], "\n"); nl != -1 {
			start += nl + 1
		}
	}
	end := strings.Index(s[start:], "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(s[start : start+end]), true
}

// balancedObject returns the first balanced {...} span that mentions a
// capabilities key. Brace counting ignores braces inside JSON strings.
func balancedObject(s string) (string, bool) {
	offset := 0
	for {
		open := strings.IndexByte(s[offset:], '{')
		if open == -1 {
			return "", false
		}
		open += offset

		end := closingBrace(s, open)
		if end == -1 {
			return "", false
		}

		span := s[open : end+1]
		if strings.Contains(span, `"capabilities"`) {
			return span, true
		}
		offset = end + 1
	}
}

// closingBrace returns the index of the brace closing the object opened
// at start, or -1 when the object never closes.
func closingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
