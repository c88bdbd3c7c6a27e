package metadata

import (
	"runtime"

	"github.com/pkg/errors"
)

// pyEnv is the partial evaluator's symbol table: names folded to concrete
// Go values (string, int64, float64, bool, nil, []any, map[string]any) as
// module-level statements execute. Unresolved names yield a *peErr, which
// setuppy.go turns into engine.PartialEvaluationInsufficientError, mirroring astNodeToValue's
// NotImplementedError-without-peval path.
type pyEnv map[string]any

// seedEnv provides the sys/platform surface setup.py files most commonly
// branch on: sys.version_info (as a tuple) and platform.system()/machine().
// Grounded on SetuptoolsSetupPyMetadataExtractor's _run_components seed
// ({"sys": sys, "platform": platform}); petwheel has no interpreter to
// hand those modules to, so it seeds a fixed, documented stand-in instead
// of the evaluator's actual host platform, keeping extraction
// deterministic regardless of what machine runs it.
func seedEnv() pyEnv {
	return pyEnv{
		"sys": map[string]any{
			"version_info": []any{int64(3), int64(11), int64(0)},
			"platform":      runtime.GOOS,
		},
		"platform": map[string]any{
			"__system__":  "Linux",
			"__machine__": "x86_64",
		},
	}
}

// evalModule executes stmts against env in place, folding every
// assignment it can and silently leaving unresolvable ones out of env
// (later references to them fail closed when actually needed, not here).
func evalModule(stmts []stmt, env pyEnv) {
	for _, s := range stmts {
		execStmt(s, env)
	}
}

func execStmt(s stmt, env pyEnv) {
	switch s := s.(type) {
	case assignStmt:
		if v, err := evalExpr(s.value, env); err == nil {
			env[s.target] = v
		}
	case ifStmt:
		v, err := evalExpr(s.test, env)
		if err != nil {
			return // can't decide which branch is live; fold neither
		}
		if truthy(v) {
			evalModule(s.body, env)
		} else {
			evalModule(s.orelse, env)
		}
	case exprStmt, skipStmt:
		// no bindings to fold
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case nil:
		return false
	case string:
		return v != ""
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	}
	return true
}

// evalExpr evaluates e against env, folding literals directly and names/
// attributes/subscripts/calls as far as the seeded symbols and already-
// folded env allow. It returns a *peErr (translated to
// engine.PartialEvaluationInsufficientError by setuppy.go) the moment it
// hits a name it cannot resolve, mirroring astNodeToValue.
func evalExpr(e expr, env pyEnv) (any, error) {
	switch e := e.(type) {
	case strLit:
		return e.v, nil
	case numLit:
		return e.v, nil
	case boolLit:
		return e.v, nil
	case noneLit:
		return nil, nil
	case nameExpr:
		v, ok := env[e.id]
		if !ok {
			return nil, insufficientErr(e.id)
		}
		return v, nil
	case attrExpr:
		base, err := evalExpr(e.value, env)
		if err != nil {
			return nil, err
		}
		m, ok := base.(map[string]any)
		if !ok {
			return nil, insufficientErr(e.attr)
		}
		v, ok := m[e.attr]
		if !ok {
			return nil, insufficientErr(e.attr)
		}
		return v, nil
	case subscrExpr:
		base, err := evalExpr(e.value, env)
		if err != nil {
			return nil, err
		}
		idx, err := evalExpr(e.index, env)
		if err != nil {
			return nil, err
		}
		return subscript(base, idx)
	case listExpr:
		out := make([]any, 0, len(e.elems))
		for _, el := range e.elems {
			v, err := evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case dictExpr:
		out := make(map[string]any, len(e.keys))
		for i, k := range e.keys {
			kv, err := evalExpr(k, env)
			if err != nil {
				return nil, err
			}
			ks, ok := kv.(string)
			if !ok {
				return nil, errors.New("only string-keyed dict literals are supported")
			}
			vv, err := evalExpr(e.vals[i], env)
			if err != nil {
				return nil, err
			}
			out[ks] = vv
		}
		return out, nil
	case binExpr:
		return evalBinOp(e, env)
	case compareExpr:
		return evalCompare(e, env)
	case callExpr:
		return evalCall(e, env)
	}
	return nil, errors.New("unsupported expression in setup.py")
}

func insufficientErr(name string) error {
	return &peErr{name: name}
}

// peErr adapts engine.PartialEvaluationInsufficientError without importing
// the engine package twice over (name collision avoidance is unnecessary
// here; this just keeps the evaluator decoupled from the engine import
// until setuppy.go translates it at the boundary).
type peErr struct{ name string }

func (e *peErr) Error() string { return "unresolved reference: " + e.name }

func subscript(base, idx any) (any, error) {
	switch b := base.(type) {
	case map[string]any:
		k, ok := idx.(string)
		if !ok {
			return nil, errors.New("dict subscript with non-string key")
		}
		v, ok := b[k]
		if !ok {
			return nil, errors.Errorf("key %q not present", k)
		}
		return v, nil
	case []any:
		i, ok := asInt(idx)
		if !ok || i < 0 || int(i) >= len(b) {
			return nil, errors.New("list index out of range or not an int")
		}
		return b[i], nil
	}
	return nil, errors.New("subscript of unsupported type")
}

func asInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func evalBinOp(e binExpr, env pyEnv) (any, error) {
	l, err := evalExpr(e.left, env)
	if err != nil {
		return nil, err
	}
	r, err := evalExpr(e.right, env)
	if err != nil {
		return nil, err
	}
	switch lv := l.(type) {
	case string:
		rv, ok := r.(string)
		if !ok {
			return nil, errors.New("string '+' with non-string operand")
		}
		return lv + rv, nil
	case []any:
		rv, ok := r.([]any)
		if !ok {
			return nil, errors.New("list '+' with non-list operand")
		}
		return append(append([]any{}, lv...), rv...), nil
	case int64:
		rv, ok := r.(int64)
		if !ok {
			return nil, errors.New("int '+' with non-int operand")
		}
		return lv + rv, nil
	}
	return nil, errors.New("unsupported '+' operand type")
}

func evalCompare(e compareExpr, env pyEnv) (any, error) {
	l, err := evalExpr(e.left, env)
	if err != nil {
		return nil, err
	}
	r, err := evalExpr(e.right, env)
	if err != nil {
		return nil, err
	}
	cmp, err := compareValues(l, r)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return nil, errors.Errorf("unsupported comparison operator %q", e.op)
}

// compareValues implements the lexicographic tuple/list comparison Python
// uses for things like "sys.version_info >= (3, 8)", plus plain scalar
// comparison.
func compareValues(l, r any) (int, error) {
	if lv, ok := l.([]any); ok {
		rv, ok := r.([]any)
		if !ok {
			return 0, errors.New("cannot compare list/tuple with scalar")
		}
		for i := 0; i < len(lv) && i < len(rv); i++ {
			c, err := compareValues(lv[i], rv[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		return len(lv) - len(rv), nil
	}
	switch lv := l.(type) {
	case int64:
		rv, ok := toFloat(r)
		if !ok {
			return 0, errors.New("cannot compare int with non-numeric")
		}
		return floatCmp(float64(lv), rv), nil
	case float64:
		rv, ok := toFloat(r)
		if !ok {
			return 0, errors.New("cannot compare float with non-numeric")
		}
		return floatCmp(lv, rv), nil
	case string:
		rv, ok := r.(string)
		if !ok {
			return 0, errors.New("cannot compare string with non-string")
		}
		switch {
		case lv < rv:
			return -1, nil
		case lv > rv:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, errors.New("unsupported comparison operand type")
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// evalCall folds only the handful of zero-argument calls a version/
// platform guard plausibly makes; anything else is insufficient.
func evalCall(e callExpr, env pyEnv) (any, error) {
	if attr, ok := e.fn.(attrExpr); ok {
		if base, ok := attr.value.(nameExpr); ok && base.id == "platform" {
			switch attr.attr {
			case "system":
				return "Linux", nil
			case "machine":
				return "x86_64", nil
			}
		}
	}
	return nil, errors.New("calls are not foldable by the setup.py partial evaluator")
}
