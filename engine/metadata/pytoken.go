package metadata

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A small, deliberately partial Python tokenizer: just enough to lex the
// subset of setup.py this package's partial evaluator understands (module-
// level assignments, if/elif/else, and a single setup(...) call). It is not
// a general Python tokenizer — f-strings, backslash line continuations
// outside brackets, and most operators beyond what version-guard
// conditionals need are simply not recognized.

type tokKind int

const (
	tokName tokKind = iota
	tokString
	tokNumber
	tokOp
	tokNewline
	tokIndent
	tokDedent
	tokEOF
)

type token struct {
	kind tokKind
	text string
}

// tokenize converts src into a flat token stream with INDENT/DEDENT/NEWLINE
// markers, following the standard Python lexing algorithm: track bracket
// depth to treat embedded newlines as continuations, and a stack of
// indentation widths to emit INDENT/DEDENT at each logical line's start.
func tokenize(src string) ([]token, error) {
	var toks []token
	indentStack := []int{0}
	lines := strings.Split(src, "\n")
	depth := 0
	var pending strings.Builder
	pendingStarted := false

	flushLogical := func(logical string, indent int) error {
		trimmed := strings.TrimLeft(logical, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			return nil
		}
		for indent > indentStack[len(indentStack)-1] {
			indentStack = append(indentStack, indent)
			toks = append(toks, token{kind: tokIndent})
		}
		for indent < indentStack[len(indentStack)-1] {
			indentStack = indentStack[:len(indentStack)-1]
			toks = append(toks, token{kind: tokDedent})
		}
		lt, err := lexLine(trimmed)
		if err != nil {
			return err
		}
		toks = append(toks, lt...)
		toks = append(toks, token{kind: tokNewline})
		return nil
	}

	openTriple := byte(0)
	for _, line := range lines {
		code := line
		if openTriple == 0 {
			code = stripLineComment(line)
		}
		if !pendingStarted {
			pendingStarted = true
		} else {
			pending.WriteByte('\n')
		}
		pending.WriteString(code)
		if openTriple == 0 {
			depth += bracketDelta(code)
		}
		openTriple = tripleQuoteState(code, openTriple)
		if depth <= 0 && openTriple == 0 {
			indent := leadingWidth(pending.String())
			if err := flushLogical(pending.String(), indent); err != nil {
				return nil, err
			}
			pending.Reset()
			pendingStarted = false
			depth = 0
		}
	}
	for len(indentStack) > 1 {
		indentStack = indentStack[:len(indentStack)-1]
		toks = append(toks, token{kind: tokDedent})
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func leadingWidth(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 8 - (n % 8)
		} else {
			break
		}
	}
	return n
}

// stripLineComment removes a trailing "# ..." unless it's inside a string
// literal. Best-effort: tracks quote state but not escapes inside strings,
// which is enough for the setup.py files this targets.
func stripLineComment(line string) string {
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
		case '#':
			return line[:i]
		}
	}
	return line
}

// tripleQuoteState scans s for triple-quote delimiters, returning the quote
// character (' or ") of a still-open triple-quoted string at the end of s,
// or 0 if none is open. open is the state carried in from the previous
// line: non-zero means s is a continuation of an already-open triple
// string, so only its closing delimiter is looked for. A docstring or
// long_description spanning several physical lines would otherwise look
// like several unrelated logical lines to the indentation tracker above,
// since triple-quoted content has no enclosing bracket to hold depth open.
func tripleQuoteState(s string, open byte) byte {
	i := 0
	for i < len(s) {
		if open != 0 {
			delim := string(open) + string(open) + string(open)
			if idx := strings.Index(s[i:], delim); idx >= 0 {
				i += idx + 3
				open = 0
				continue
			}
			return open
		}
		c := s[i]
		if c == '\'' || c == '"' {
			if strings.HasPrefix(s[i:], string(c)+string(c)+string(c)) {
				open = c
				i += 3
				continue
			}
			// Single/double-quoted non-triple string: skip to its end so an
			// embedded quote char doesn't look like a triple-quote start.
			j := i + 1
			for j < len(s) && s[j] != c {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
			continue
		}
		i++
	}
	return open
}

func bracketDelta(s string) int {
	d := 0
	inStr := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
		case '(', '[', '{':
			d++
		case ')', ']', '}':
			d--
		}
	}
	return d
}

// lexLine tokenizes a single logical line (comments already stripped, may
// contain embedded newlines from continuation).
func lexLine(s string) ([]token, error) {
	var toks []token
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '\'' || c == '"':
			str, consumed, err := lexString(s[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: str})
			i += consumed
		case isDigit(c):
			j := i
			for j < n && (isDigit(s[j]) || s[j] == '.' || s[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: strings.ReplaceAll(s[i:j], "_", "")})
			i = j
		case isNameStart(c):
			j := i
			for j < n && isNameCont(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokName, text: s[i:j]})
			i = j
		default:
			op, consumed := lexOp(s[i:])
			if consumed == 0 {
				return nil, errors.Errorf("unrecognized character %q in setup.py", c)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i += consumed
		}
	}
	return toks, nil
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isNameStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isNameCont(c byte) bool  { return isNameStart(c) || isDigit(c) }

var multiCharOps = []string{"**", "==", "!=", "<=", ">=", "//"}

func lexOp(s string) (string, int) {
	for _, op := range multiCharOps {
		if strings.HasPrefix(s, op) {
			return op, len(op)
		}
	}
	switch s[0] {
	case '(', ')', '[', ']', '{', '}', ',', ':', '.', '=', '+', '-', '*', '/', '<', '>', '%':
		return s[0:1], 1
	}
	return "", 0
}

// lexString handles single/double and triple-quoted strings, with minimal
// escape handling: \n and \t are decoded, and any other backslash-escaped
// character (\\, the quote char, ...) is kept as that character alone.
func lexString(s string) (string, int, error) {
	triple := strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, "'''")
	quote := s[0]
	qlen := 1
	if triple {
		qlen = 3
	}
	delim := s[:qlen]
	i := qlen
	var out strings.Builder
	for i < len(s) {
		if strings.HasPrefix(s[i:], delim) {
			return out.String(), i + qlen, nil
		}
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			default:
				out.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	_ = quote
	return "", 0, errors.New("unterminated string literal in setup.py")
}

func parseNumber(text string) (any, error) {
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		return f, err
	}
	n, err := strconv.ParseInt(text, 10, 64)
	return n, err
}
