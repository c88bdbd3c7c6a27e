package install

import "github.com/petwheel/petwheel/engine"

// InstalledVersion reports the version of name already unpacked under
// scheme, if any. It is the read-only counterpart of findDistInfo, exposed
// for the resolver's reinstall-needed decision (section 4.4/C6): since
// Unpin (C8) strips every upstream version specifier before a requirement
// is ever scheduled, the resolver has nothing to compare this version
// against — presence alone answers "is some version already installed".
func InstalledVersion(scheme Scheme, name engine.PackageName) (version string, installed bool) {
	distInfo, err := findDistInfo(scheme.Purelib, name)
	if err != nil || distInfo == "" {
		return "", false
	}
	info, ok := parseDistInfoDirName(distInfo, name)
	if !ok {
		return "", true // installed, but the dirname didn't parse: report presence only
	}
	return info, true
}

func parseDistInfoDirName(distInfoPath string, name engine.PackageName) (string, bool) {
	base := distInfoPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	const suffix = ".dist-info"
	if len(base) <= len(suffix) || base[len(base)-len(suffix):] != suffix {
		return "", false
	}
	stem := base[:len(base)-len(suffix)]
	prefix := string(name) + "-"
	if len(stem) <= len(prefix) {
		return "", false
	}
	return stem[len(prefix):], true
}
