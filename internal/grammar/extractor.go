package grammar

import (
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
)

const (
	contentMarker    = "CONTENT:"
	endContentMarker = "END_CONTENT"
)

type Extractor struct {
	grammar *Grammar
}

func NewExtractor(g *Grammar) *Extractor {
	if g == nil {
		g = Default()
	}
	return &Extractor{grammar: g}
}

// Extract returns the directive on the first matching line of reply. Later
// markers are ignored: one reply drives at most one action.
func (e *Extractor) Extract(reply string) (action.Directive, bool) {
	lines := splitLines(reply)
	for i, line := range lines {
		rule, arg, ok := e.grammar.Match(line)
		if !ok {
			continue
		}
		d := action.Directive{
			Kind:     rule.Kind,
			Argument: arg,
			Raw:      strings.TrimSpace(line),
			Origin:   action.OriginModel,
		}
		if rule.Block {
			if content, found := readContentBlock(lines[i+1:]); found {
				d.Content = content
				d.HasContent = true
			}
		}
		return d, true
	}
	return action.Directive{}, false
}

// readContentBlock collects the lines between CONTENT: and END_CONTENT. A
// missing END_CONTENT runs to the end of the reply.
func readContentBlock(lines []string) (string, bool) {
	var (
		collected  []string
		collecting bool
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !collecting {
			if hasFoldPrefix(trimmed, contentMarker) {
				collecting = true
				if rest := strings.TrimSpace(trimmed[len(contentMarker):]); rest != "" {
					collected = append(collected, rest)
				}
			}
			continue
		}
		if hasFoldPrefix(trimmed, endContentMarker) {
			break
		}
		collected = append(collected, line)
	}
	if !collecting {
		return "", false
	}
	return strings.Join(collected, "\n"), true
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
