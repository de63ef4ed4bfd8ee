// Package extract splits free-text model responses into structured fields.
//
// Models do not reliably follow formatting instructions, so every marker is treated as a hint:
// extraction never fails and missing structure degrades to empty fields.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
)

const (
	// DependencyMarker prefixes the comma-separated dependency line
	DependencyMarker = "DEPENDENCIES:"

	// DefaultLanguage is the fence tag the code prompt asks for
	DefaultLanguage = "python"

	codeFence = "```"
)

var (
	dependencyValue = regexp.MustCompile(regexp.QuoteMeta(DependencyMarker) + `[ \t]*(.*)`)
	dependencyLine  = regexp.MustCompile(regexp.QuoteMeta(DependencyMarker) + `.*(?:\n|$)`)
)

// Parser extracts a CodeGenerationResult for one fence language
type Parser struct {
	language string
	fence    *regexp.Regexp
}

// NewParser creates a parser that looks for fences tagged with language.
// An empty language falls back to DefaultLanguage.
func NewParser(language string) *Parser {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	pattern := "(?s)" + codeFence + regexp.QuoteMeta(language) + `\r?\n(.*?)` + codeFence
	return &Parser{
		language: language,
		fence:    regexp.MustCompile(pattern),
	}
}

// Language returns the fence tag this parser matches
func (p *Parser) Language() string {
	return p.language
}

var defaultParser = NewParser(DefaultLanguage)

// ParseCodeResponse extracts dependencies, code and explanation using the python fence tag
func ParseCodeResponse(raw string) models.CodeGenerationResult {
	return defaultParser.Parse(raw)
}

// Parse splits raw into dependencies, the first tagged code block and the remaining prose
func (p *Parser) Parse(raw string) models.CodeGenerationResult {
	return models.CodeGenerationResult{
		Dependencies: parseDependencies(raw),
		Code:         p.code(raw),
		Explanation:  p.Explanation(raw),
	}
}

// Explanation returns raw without its first tagged code block and without any dependency line.
// Both regions are located on the original text, so their relative order does not matter.
func (p *Parser) Explanation(raw string) string {
	var spans [][2]int
	if loc := p.fence.FindStringIndex(raw); loc != nil {
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	for _, loc := range dependencyLine.FindAllStringIndex(raw, -1) {
		spans = append(spans, [2]int{loc[0], loc[1]})
	}

	remaining, cuts := removeSpans(raw, spans)

	// Cutting a region out can splice a new marker or a new fence together from its neighbours.
	// Fences that lie entirely on one side of every cut were already in raw and stay.
	for len(cuts) > 0 {
		spans = spans[:0]
		for _, loc := range dependencyLine.FindAllStringIndex(remaining, -1) {
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
		for _, loc := range p.fence.FindAllStringIndex(remaining, -1) {
			if straddlesCut(loc, cuts) {
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
		}
		remaining, cuts = removeSpans(remaining, spans)
	}

	return strings.TrimSpace(remaining)
}

func straddlesCut(loc []int, cuts []int) bool {
	for _, cut := range cuts {
		if loc[0] < cut && cut < loc[1] {
			return true
		}
	}
	return false
}

func (p *Parser) code(raw string) string {
	match := p.fence.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	return match[1]
}

func parseDependencies(raw string) []string {
	match := dependencyValue.FindStringSubmatch(raw)
	if match == nil {
		return []string{}
	}

	dependencies := []string{}
	for _, token := range strings.Split(match[1], ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			dependencies = append(dependencies, token)
		}
	}
	return dependencies
}

// removeSpans cuts the union of the half-open byte ranges out of s.
// It also returns the offsets in the result where text was cut out.
func removeSpans(s string, spans [][2]int) (string, []int) {
	if len(spans) == 0 {
		return s, nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var b strings.Builder
	b.Grow(len(s))
	var cuts []int
	cursor := 0
	for _, span := range spans {
		if span[0] > cursor {
			b.WriteString(s[cursor:span[0]])
		}
		if span[1] > cursor {
			if len(cuts) == 0 || cuts[len(cuts)-1] != b.Len() {
				cuts = append(cuts, b.Len())
			}
			cursor = span[1]
		}
	}
	b.WriteString(s[cursor:])
	return b.String(), cuts
}
