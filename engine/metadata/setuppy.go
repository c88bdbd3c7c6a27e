package metadata

import (
	"os"

	"github.com/pkg/errors"
	"github.com/petwheel/petwheel/engine"
)

// setupPyExtractor partially evaluates a legacy imperative setup.py to
// recover the keywords passed to its setup(...) call. Grounded on
// SetuptoolsSetupPyMetadataExtractor: parse, constant-fold what module-
// level assignments and a symbol table can resolve, locate the setup call
// (bare "setup(...)" or "setuptools.setup(...)"), and read its keywords.
type setupPyExtractor struct {
	call *callExpr
	env  pyEnv
}

func newSetupPyExtractor(path string) (*setupPyExtractor, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stmts, err := parseModule(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	env := seedEnv()
	evalModule(stmts, env)

	call := findSetupCall(stmts)
	return &setupPyExtractor{call: call, env: env}, nil
}

func findSetupCall(stmts []stmt) *callExpr {
	for _, s := range stmts {
		switch s := s.(type) {
		case exprStmt:
			if c, ok := s.value.(callExpr); ok && isSetupCall(c) {
				return &c
			}
		case ifStmt:
			if c := findSetupCall(s.body); c != nil {
				return c
			}
			if c := findSetupCall(s.orelse); c != nil {
				return c
			}
		}
	}
	return nil
}

func isSetupCall(c callExpr) bool {
	switch fn := c.fn.(type) {
	case nameExpr:
		return fn.id == "setup"
	case attrExpr:
		base, ok := fn.value.(nameExpr)
		return ok && base.id == "setuptools" && fn.attr == "setup"
	}
	return false
}

func (e *setupPyExtractor) keyword(name string) (any, bool, error) {
	if e.call == nil {
		return nil, false, nil
	}
	kw, ok := e.call.keywords[name]
	if !ok {
		return nil, false, nil
	}
	v, err := evalExpr(kw, e.env)
	if err != nil {
		if pe, ok := err.(*peErr); ok {
			return nil, false, &engine.PartialEvaluationInsufficientError{VarName: pe.name}
		}
		return nil, false, err
	}
	return v, true, nil
}

func (e *setupPyExtractor) getName() (string, error) {
	v, ok, err := e.keyword("name")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("setup.py's setup() call has no name keyword")
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("`name` is not a string")
	}
	return s, nil
}

func (e *setupPyExtractor) getBuildDeps() ([]string, error) {
	return e.getStringArray("setup_requires")
}

func (e *setupPyExtractor) getDeps() ([]string, error) {
	return e.getStringArray("install_requires")
}

func (e *setupPyExtractor) getStringArray(name string) ([]string, error) {
	v, ok, err := e.keyword(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, errors.Errorf("`%s` is not a list", name)
	}
	out := make([]string, 0, len(list))
	for i, el := range list {
		s, ok := el.(string)
		if !ok {
			return nil, errors.Errorf("`%s` element %d is not a string", name, i)
		}
		out = append(out, removeTrailingComment(s))
	}
	return out, nil
}
