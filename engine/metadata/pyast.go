package metadata

import "github.com/pkg/errors"

// A minimal expression/statement AST for the setup.py subset this package
// partially evaluates: literals, names, attribute/subscript access, list/
// tuple/dict displays, calls, binary "+" (string/list/tuple concat), and
// comparisons (for sys.version_info guards) — plus assignment, if/elif/
// else, and bare expression statements at the module level.

type expr interface{ isExpr() }

type (
	strLit    struct{ v string }
	numLit    struct{ v any }
	boolLit   struct{ v bool }
	noneLit   struct{}
	nameExpr  struct{ id string }
	attrExpr  struct {
		value expr
		attr  string
	}
	subscrExpr struct{ value, index expr }
	listExpr   struct {
		elems  []expr
		isTup  bool
	}
	dictExpr struct {
		keys, vals []expr
	}
	callExpr struct {
		fn       expr
		args     []expr
		keywords map[string]expr
		kwOrder  []string
	}
	binExpr struct {
		op          string
		left, right expr
	}
	compareExpr struct {
		op          string
		left, right expr
	}
)

func (strLit) isExpr()     {}
func (numLit) isExpr()     {}
func (boolLit) isExpr()    {}
func (noneLit) isExpr()    {}
func (nameExpr) isExpr()   {}
func (attrExpr) isExpr()   {}
func (subscrExpr) isExpr() {}
func (listExpr) isExpr()   {}
func (dictExpr) isExpr()   {}
func (callExpr) isExpr()   {}
func (binExpr) isExpr()    {}
func (compareExpr) isExpr() {}

type stmt interface{ isStmt() }

type (
	assignStmt struct {
		target string
		value  expr
	}
	ifStmt struct {
		test        expr
		body, orelse []stmt
	}
	exprStmt struct{ value expr }
	skipStmt struct{} // def/class/import and anything else not modeled
)

func (assignStmt) isStmt() {}
func (ifStmt) isStmt()     {}
func (exprStmt) isStmt()   {}
func (skipStmt) isStmt()   {}

// parser is a recursive-descent parser over the INDENT/DEDENT/NEWLINE
// token stream produced by tokenize.
type parser struct {
	toks []token
	pos  int
}

func parseModule(src string) ([]stmt, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseBlock()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *parser) atOp(s string) bool  { return p.cur().kind == tokOp && p.cur().text == s }
func (p *parser) atName(s string) bool { return p.cur().kind == tokName && p.cur().text == s }

func (p *parser) skipNewlines() {
	for p.cur().kind == tokNewline {
		p.advance()
	}
}

// parseBlock parses statements until a DEDENT or EOF.
func (p *parser) parseBlock() ([]stmt, error) {
	var stmts []stmt
	p.skipNewlines()
	for p.cur().kind != tokDedent && p.cur().kind != tokEOF {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
		p.skipNewlines()
	}
	if p.cur().kind == tokDedent {
		p.advance()
	}
	return stmts, nil
}

func (p *parser) parseSuite() ([]stmt, error) {
	if k := p.cur().kind; k != tokNewline && k != tokIndent && k != tokEOF {
		// Single-line suite, e.g. "if x: y = 1" — not used by real setup.py
		// files in practice; its tokens are skipped up to the newline and it
		// is treated as an empty block rather than failing.
		for p.cur().kind != tokNewline && p.cur().kind != tokEOF {
			p.advance()
		}
		return nil, nil
	}
	if p.cur().kind == tokNewline {
		p.skipNewlines()
	}
	if p.cur().kind == tokIndent {
		p.advance()
		return p.parseBlock()
	}
	// A ':' line with no indented block after it: an empty block.
	return nil, nil
}

func (p *parser) parseStmt() (stmt, error) {
	if p.atName("if") || p.atName("elif") {
		return p.parseIf()
	}
	if p.atName("def") || p.atName("class") || p.atName("import") || p.atName("from") ||
		p.atName("try") || p.atName("with") || p.atName("for") || p.atName("while") {
		return p.skipCompoundOrSimple()
	}
	return p.parseSimpleStmt()
}

// skipCompoundOrSimple consumes an unmodeled statement. If it ends in a
// ':' it owns an indented suite, which is skipped wholesale; otherwise
// it's a simple statement (e.g. "import os") consumed to its newline.
func (p *parser) skipCompoundOrSimple() (stmt, error) {
	hadColon := false
	for p.cur().kind != tokNewline && p.cur().kind != tokEOF {
		if p.atOp(":") {
			hadColon = true
		}
		p.advance()
	}
	if hadColon {
		if _, err := p.parseSuite(); err != nil {
			return nil, err
		}
	}
	return skipStmt{}, nil
}

func (p *parser) parseIf() (stmt, error) {
	p.advance() // if/elif
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atOp(":") {
		return nil, errors.New("expected ':' after if/elif test")
	}
	p.advance()
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	var orelse []stmt
	p.skipNewlines()
	if p.atName("elif") {
		sub, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		orelse = []stmt{sub}
	} else if p.atName("else") {
		p.advance()
		if !p.atOp(":") {
			return nil, errors.New("expected ':' after else")
		}
		p.advance()
		orelse, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	return ifStmt{test: test, body: body, orelse: orelse}, nil
}

func (p *parser) parseSimpleStmt() (stmt, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atOp("=") {
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		name, ok := e.(nameExpr)
		if !ok {
			// Tuple/attribute/subscript assignment target: not modeled,
			// skip rather than fail the whole file.
			p.consumeToNewline()
			return skipStmt{}, nil
		}
		p.consumeToNewline()
		return assignStmt{target: name.id, value: val}, nil
	}
	p.consumeToNewline()
	return exprStmt{value: e}, nil
}

func (p *parser) consumeToNewline() {
	for p.cur().kind != tokNewline && p.cur().kind != tokEOF {
		p.advance()
	}
}

// --- expression parsing, lowest to highest precedence ---

func (p *parser) parseExpr() (expr, error) { return p.parseCompare() }

func (p *parser) parseCompare() (expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && isCompareOp(p.cur().text) {
		op := p.advance().text
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = compareExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func isCompareOp(s string) bool {
	switch s {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *parser) parseAdd() (expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.atOp("+") {
		p.advance()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: "+", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePostfix() (expr, error) {
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("."):
			p.advance()
			if p.cur().kind != tokName {
				return nil, errors.New("expected attribute name after '.'")
			}
			attr := p.advance().text
			e = attrExpr{value: e, attr: attr}
		case p.atOp("["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if !p.atOp("]") {
				return nil, errors.New("expected ']'")
			}
			p.advance()
			e = subscrExpr{value: e, index: idx}
		case p.atOp("("):
			call, err := p.parseCallArgs(e)
			if err != nil {
				return nil, err
			}
			e = call
		default:
			return e, nil
		}
	}
}

func (p *parser) parseCallArgs(fn expr) (expr, error) {
	p.advance() // (
	call := callExpr{fn: fn, keywords: map[string]expr{}}
	for !p.atOp(")") {
		if p.cur().kind == tokName && p.peekIsKwEq() {
			name := p.advance().text
			p.advance() // =
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.keywords[name] = val
			call.kwOrder = append(call.kwOrder, name)
		} else {
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.args = append(call.args, val)
		}
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.atOp(")") {
		return nil, errors.New("expected ')' to close call")
	}
	p.advance()
	return call, nil
}

func (p *parser) peekIsKwEq() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.kind == tokOp && next.text == "="
}

func (p *parser) parseAtom() (expr, error) {
	t := p.cur()
	switch {
	case t.kind == tokString:
		p.advance()
		s := t.text
		// Adjacent string literal concatenation, e.g. "a" "b".
		for p.cur().kind == tokString {
			s += p.advance().text
		}
		return strLit{v: s}, nil
	case t.kind == tokNumber:
		p.advance()
		n, err := parseNumber(t.text)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid numeric literal %q", t.text)
		}
		return numLit{v: n}, nil
	case t.kind == tokName && t.text == "True":
		p.advance()
		return boolLit{v: true}, nil
	case t.kind == tokName && t.text == "False":
		p.advance()
		return boolLit{v: false}, nil
	case t.kind == tokName && t.text == "None":
		p.advance()
		return noneLit{}, nil
	case t.kind == tokName:
		p.advance()
		return nameExpr{id: t.text}, nil
	case t.kind == tokOp && (t.text == "[" || t.text == "("):
		return p.parseListOrTuple(t.text)
	case t.kind == tokOp && t.text == "{":
		return p.parseDict()
	case t.kind == tokOp && (t.text == "-" || t.text == "+"):
		// Unary sign on a numeric literal, e.g. "-1".
		sign := p.advance().text
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		n, ok := inner.(numLit)
		if !ok {
			return nil, errors.New("unary +/- only supported on numeric literals")
		}
		if sign == "-" {
			switch v := n.v.(type) {
			case int64:
				n.v = -v
			case float64:
				n.v = -v
			}
		}
		return n, nil
	}
	return nil, errors.Errorf("unexpected token %q while parsing setup.py expression", t.text)
}

func (p *parser) parseListOrTuple(open string) (expr, error) {
	close := "]"
	if open == "(" {
		close = ")"
	}
	p.advance()
	var elems []expr
	for !p.atOp(close) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.atOp(close) {
		return nil, errors.Errorf("expected %q to close literal", close)
	}
	p.advance()
	if open == "(" && len(elems) == 1 {
		// A single parenthesized expression, not a one-tuple: "(x)" == x.
		// setup.py rarely relies on a trailing comma for a real 1-tuple,
		// and petwheel's evaluator never needs that distinction.
		return elems[0], nil
	}
	return listExpr{elems: elems, isTup: open == "("}, nil
}

func (p *parser) parseDict() (expr, error) {
	p.advance() // {
	d := dictExpr{}
	for !p.atOp("}") {
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.atOp(":") {
			return nil, errors.New("expected ':' in dict literal")
		}
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.keys = append(d.keys, k)
		d.vals = append(d.vals, v)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.atOp("}") {
		return nil, errors.New("expected '}' to close dict literal")
	}
	p.advance()
	return d, nil
}
