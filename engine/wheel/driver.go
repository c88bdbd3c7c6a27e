package wheel

// pyDriverSource is the child process run to build a single wheel. It is
// handed the cookie's reversed sentinels as Python string literals and
// the build request as JSON on stdin, and writes cookie-wrapped JSON to
// stdout, tolerating (and passing through) anything the build backend
// itself prints. Grounded on ipi/utils/pythonBuild.py's
// buildWheelUsingPEP517/RemotePep517/main: the setup.py fallback is
// folded in by defaulting build-backend to setuptools.build_meta whenever
// pyproject.toml is absent or declares none; whether setup.py exists is
// not checked.
const pyDriverSource = `
import json
import sys
from pathlib import Path


def _build(pkg, outDir):
    outDir.mkdir(parents=True, exist_ok=True)
    toml_file = pkg / "pyproject.toml"
    build_backend = "setuptools.build_meta"
    backend_path = None
    if toml_file.is_file():
        try:
            import tomllib
        except ImportError:
            import tomli as tomllib
        with toml_file.open("rb") as f:
            ppt = tomllib.load(f)
        bs = ppt.get("build-system", {})
        build_backend = bs.get("build-backend", build_backend)
        backend_path = bs.get("backend-path")
    from pyproject_hooks import BuildBackendHookCaller

    hooks = BuildBackendHookCaller(str(pkg), build_backend=build_backend, backend_path=backend_path)
    wheel_name = hooks.build_wheel(str(outDir), {})
    return outDir / wheel_name


def main():
    req = json.loads(sys.stdin.read())
    pkg = Path(req["pkg"]).resolve()
    outDir = Path(req["outDir"]).resolve()
    try:
        wheel_path = _build(pkg, outDir)
        result = {"wheel": str(wheel_path)}
    except BaseException as ex:  # noqa: broad except mirrors main()'s own
        result = {"error": {"class": ex.__class__.__name__, "args": [str(a) for a in ex.args]}}

    sys.stdout.write(%s)
    sys.stdout.write(json.dumps(result))
    sys.stdout.write(%s)


if __name__ == "__main__":
    main()
`

// pyStrLit renders s (an alphanumeric cookie half) as a single-quoted
// Python string literal. s is always the output of genCookie, so it never
// needs escaping, but the quoting is explicit rather than assumed.
func pyStrLit(s string) string {
	return "'" + s + "'"
}
