// Package pysource extracts top-level declarations and the __all__ export list
// from Python source text.
package pysource

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/715d/exportlist/pkg/exports"
)

// Compile patterns once at package initialization.
var (
	// def name( or async def name( at column 0.
	defPattern = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

	// class Name: or class Name( at column 0.
	classPattern = regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)\s*[:(]`)

	// UPPER_CASE = value, optionally annotated and underscore-prefixed.
	constPattern = regexp.MustCompile(`^(_*[A-Z][A-Z0-9_]+)\s*(?::[^=]*)?=[^=]`)

	// __all__ = [ / ( , __all__ += [ / ( and __all__.extend([ / (.
	allAssignPattern = regexp.MustCompile(`^__all__\s*(?::[^=]*)?=\s*([\[(])`)
	allAppendPattern = regexp.MustCompile(`^__all__\s*(?:\+=\s*|\.extend\(\s*)([\[(])`)

	// quoted identifier inside an __all__ literal.
	namePattern = regexp.MustCompile(`["']([A-Za-z_][A-Za-z0-9_]*)["']`)
)

// Parse scans src and returns its top-level symbols in declaration order along
// with the export list, if any. It never fails: anything unrecognized is
// skipped.
func Parse(src []byte) exports.Module {
	text := blankTripleQuoted(src)
	lines := strings.Split(text, "\n")

	var m exports.Module
	seen := make(map[string]struct{})

	add := func(name string, kind exports.Kind, line int) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		m.Symbols = append(m.Symbols, exports.Symbol{Name: name, Kind: kind, Line: line})
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
			continue
		}

		if loc := allAssignPattern.FindStringSubmatchIndex(line); loc != nil {
			names, consumed := readListLiteral(lines, i, loc[2])
			if !m.Exports.Declared() {
				m.Exports = exports.DeclaredExportList(names...)
			}
			i += consumed
			continue
		}

		if loc := allAppendPattern.FindStringSubmatchIndex(line); loc != nil {
			names, consumed := readListLiteral(lines, i, loc[2])
			m.Exports = m.Exports.Append(names...)
			i += consumed
			continue
		}

		if match := defPattern.FindStringSubmatch(line); match != nil {
			add(match[1], exports.KindFunction, i+1)
			continue
		}

		if match := classPattern.FindStringSubmatch(line); match != nil {
			add(match[1], exports.KindClass, i+1)
			continue
		}

		if match := constPattern.FindStringSubmatch(line); match != nil {
			add(match[1], exports.KindConstant, i+1)
		}
	}

	return m
}

// readListLiteral collects the quoted names of a list or tuple literal whose
// opening bracket sits at lines[start][open], following `+ [...]`
// concatenations on the line where a literal closes. It returns the names and
// how many extra lines the literal spanned.
func readListLiteral(lines []string, start, open int) ([]string, int) {
	closer := closerOf(lines[start][open])

	var body strings.Builder
	depth := 0
	for i := start; i < len(lines); i++ {
		line := stripComment(lines[i])
		from := 0
		if i == start {
			from = open
		}
		for j := from; j < len(line); j++ {
			switch line[j] {
			case '[', '(':
				depth++
			case ']', ')':
				depth--
				if depth == 0 && line[j] == closer {
					next, ok := concatenated(line, j+1)
					if !ok {
						return quotedNames(body.String()), i - start
					}
					closer = closerOf(line[next])
					j = next - 1
				}
			default:
				body.WriteByte(line[j])
			}
		}
		body.WriteByte('\n')
	}

	// Unterminated literal: keep what was read.
	return quotedNames(body.String()), len(lines) - 1 - start
}

func closerOf(open byte) byte {
	if open == '(' {
		return ')'
	}
	return ']'
}

// concatenated reports whether line continues at from with `+ [` or `+ (`,
// returning the index of the next opening bracket.
func concatenated(line string, from int) (int, bool) {
	rest := strings.TrimLeft(line[from:], " \t")
	if !strings.HasPrefix(rest, "+") {
		return 0, false
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if rest == "" || (rest[0] != '[' && rest[0] != '(') {
		return 0, false
	}
	return len(line) - len(rest), true
}

func quotedNames(body string) []string {
	names := []string{}
	for _, match := range namePattern.FindAllStringSubmatch(body, -1) {
		names = append(names, match[1])
	}
	return names
}

// stripComment drops a trailing # comment that is not inside a quoted string.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

// blankTripleQuoted replaces the contents of triple-quoted strings with spaces,
// keeping newlines so line numbers survive. Quotes inside ordinary strings and
// comments do not open a triple-quoted string.
func blankTripleQuoted(src []byte) string {
	out := bytes.Clone(src)
	for i := 0; i < len(out); i++ {
		switch c := out[i]; {
		case c == '#':
			for i+1 < len(out) && out[i+1] != '\n' {
				i++
			}
		case isTripleQuote(out, i):
			i = blankUntilClose(out, i)
		case c == '"' || c == '\'':
			i = skipString(out, i)
		}
	}
	return string(out)
}

// blankUntilClose blanks the triple-quoted string opening at i and returns the
// index of its last closing quote, or the end of out when it never closes.
func blankUntilClose(out []byte, i int) int {
	q := out[i]
	end := len(out)
	for j := i + 3; j+2 < len(out); j++ {
		if out[j] == '\\' {
			j++
			continue
		}
		if out[j] == q && out[j+1] == q && out[j+2] == q {
			end = j
			break
		}
	}
	for k := i + 3; k < end; k++ {
		if out[k] != '\n' {
			out[k] = ' '
		}
	}
	return min(end+2, len(out))
}

// skipString returns the index of the quote closing the single-line string
// opening at i, or of the newline ending an unterminated one.
func skipString(b []byte, i int) int {
	q := b[i]
	j := i + 1
	for ; j < len(b) && b[j] != q && b[j] != '\n'; j++ {
		if b[j] == '\\' {
			j++
		}
	}
	return j
}

func isTripleQuote(b []byte, i int) bool {
	if i+2 >= len(b) {
		return false
	}
	c := b[i]
	return (c == '"' || c == '\'') && b[i+1] == c && b[i+2] == c
}
