package toolcall

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/effective-security/agentloop/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "toolcall")

// Request is a tool invocation parsed from model output.
// The tool is not guaranteed to exist.
type Request struct {
	Name       string         `json:"name" yaml:"name"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
	// Degraded is set when a parameter payload was present but could not be
	// decoded, Parameters is empty in that case.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Parser extracts directives from model output.
type Parser struct {
	syntax Syntax
}

// NewParser returns a parser for the syntax, SyntaxJSON if empty.
func NewParser(syntax Syntax) *Parser {
	if syntax == "" {
		syntax = SyntaxJSON
	}
	return &Parser{syntax: syntax}
}

// Syntax returns the active syntax.
func (p *Parser) Syntax() Syntax {
	return p.syntax
}

// Parse returns the directives found in text, in order of appearance.
// The result is empty when text has no sentinel.
func (p *Parser) Parse(text string) []Request {
	var res []Request

	pos := 0
	for {
		idx := strings.Index(text[pos:], Sentinel)
		if idx < 0 {
			break
		}
		pos += idx + len(Sentinel)

		start := skipSpace(text, pos)
		name := readIdent(text, start)
		if name == "" {
			continue
		}
		pos = start + len(name)

		var (
			req  Request
			next int
			ok   bool
		)
		if p.syntax == SyntaxKeyValue {
			req, next, ok = parseKeyValue(name, text, pos)
		} else {
			req, next, ok = parseJSON(name, text, pos)
		}
		if !ok {
			continue
		}
		pos = next

		if req.Degraded {
			metricskey.StatsToolCallsDegraded.IncrCounter(1, req.Name)
			logger.KV(xlog.DEBUG,
				"status", "degraded_parameters",
				"tool", req.Name,
				"text", slices.StringUpto(text, 256),
			)
		}
		res = append(res, req)
	}
	return res
}

// parseJSON reads an optional JSON object following the tool name.
// A missing object yields empty parameters, an undecodable one is degraded.
func parseJSON(name, text string, pos int) (Request, int, bool) {
	req := Request{Name: name, Parameters: map[string]any{}}

	start := skipSpace(text, pos)
	if start >= len(text) || text[start] != '{' {
		return req, pos, true
	}

	end := matchBrace(text, start)
	if end < 0 {
		// unterminated, the rest of the text belongs to the payload
		req.Degraded = true
		return req, len(text), true
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &params); err != nil || params == nil {
		req.Degraded = true
	} else {
		req.Parameters = params
	}
	return req, end + 1, true
}

// parseKeyValue reads `(k="v", k2=v2)` immediately following the tool name.
// The list ends at the first closing parenthesis.
func parseKeyValue(name, text string, pos int) (Request, int, bool) {
	if pos >= len(text) || text[pos] != '(' {
		return Request{}, pos, false
	}
	end := strings.IndexByte(text[pos+1:], ')')
	if end < 0 {
		return Request{}, pos, false
	}
	end += pos + 1

	req := Request{Name: name, Parameters: map[string]any{}}
	args := text[pos+1 : end]
	if strings.TrimSpace(args) == "" {
		return req, end + 1, true
	}

	for _, pair := range strings.Split(args, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if strings.EqualFold(value, "none") {
			req.Parameters[key] = nil
		} else {
			req.Parameters[key] = value
		}
	}
	return req, end + 1, true
}

// matchBrace returns the index of the brace closing the object at start,
// or -1 if the object is not terminated. Braces inside strings are ignored.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipSpace(text string, pos int) int {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

func readIdent(text string, pos int) string {
	end := pos
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		end += size
	}
	return text[pos:end]
}
