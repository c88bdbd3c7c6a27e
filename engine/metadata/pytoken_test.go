package metadata

import "testing"

func countKind(toks []token, k tokKind) int {
	n := 0
	for _, t := range toks {
		if t.kind == k {
			n++
		}
	}
	return n
}

func TestTokenizeSimpleAssignment(t *testing.T) {
	toks, err := tokenize("x = 1\n")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if countKind(toks, tokNewline) != 1 {
		t.Errorf("expected exactly one NEWLINE, got tokens: %+v", toks)
	}
	if toks[len(toks)-1].kind != tokEOF {
		t.Errorf("expected last token to be EOF, got %+v", toks[len(toks)-1])
	}
}

func TestTokenizeMultilineTripleQuotedString(t *testing.T) {
	src := "x = \"\"\"\nline one\nline two\n\"\"\"\ny = 2\n"
	toks, err := tokenize(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	// Two logical lines (the triple-quoted assignment, then y = 2), so
	// exactly two NEWLINE tokens.
	if n := countKind(toks, tokNewline); n != 2 {
		t.Errorf("expected 2 NEWLINE tokens for 2 logical lines, got %d in %+v", n, toks)
	}
	var strings []string
	for _, tok := range toks {
		if tok.kind == tokString {
			strings = append(strings, tok.text)
		}
	}
	if len(strings) != 1 || strings[0] != "\nline one\nline two\n" {
		t.Errorf("unexpected string token(s): %+v", strings)
	}
}

func TestTokenizeBracketContinuation(t *testing.T) {
	src := "x = [\n    1,\n    2,\n]\n"
	toks, err := tokenize(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if n := countKind(toks, tokNewline); n != 1 {
		t.Errorf("expected a bracketed literal to be a single logical line, got %d NEWLINEs in %+v", n, toks)
	}
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	if _, err := tokenize("x = 'unterminated\n"); err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestStripLineComment(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = 1  # a comment", "x = 1  "},
		{"x = '# not a comment'", "x = '# not a comment'"},
		{"# whole line comment", ""},
	}
	for _, c := range cases {
		if got := stripLineComment(c.in); got != c.want {
			t.Errorf("stripLineComment(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
