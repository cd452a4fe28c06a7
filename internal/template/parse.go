package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse marks a generator response that could not be turned into a
// Template. It is distinct from adapter failures so the HTTP layer can tell
// "the model call failed" apart from "the model answered garbage".
var ErrParse = errors.New("could not parse generated template")

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseGenerated extracts the JSON template from a raw model response. The
// model is asked to answer with bare JSON but often wraps it in a fenced
// code block; the fence is stripped before decoding. The decoded value is
// validated structurally (title plus block list) and nothing more — semantic
// validation of generated content is out of scope.
func ParseGenerated(text string) (*Template, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}
	if match := codeFencePattern.FindStringSubmatch(raw); match != nil {
		raw = strings.TrimSpace(match[1])
	}

	var tpl Template
	if err := json.Unmarshal([]byte(raw), &tpl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if strings.TrimSpace(tpl.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrParse)
	}
	if tpl.Blocks == nil {
		tpl.Blocks = []Block{}
	}
	return &tpl, nil
}
