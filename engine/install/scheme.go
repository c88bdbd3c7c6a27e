// Package install implements the installer (C5): unpacking a built wheel
// into an installation scheme's directories, and reversing that for
// reinstall/uninstall.
package install

import "path/filepath"

// Scheme is the set of destination directories a wheel's categorized
// files land in, mirroring distlib/installer's SchemeDictionaryDestination
// (purelib, platlib, headers, scripts, data) as read by
// ipi/tools/install.py's getScheme().
type Scheme struct {
	Purelib string
	Platlib string
	Headers string
	Scripts string
	Data    string
}

// DefaultScheme lays out a scheme entirely under root, the way a
// virtualenv-less, self-contained install (PETWHEEL_HOME) needs to: no
// assumption of a system site-packages to share.
func DefaultScheme(root string) Scheme {
	return Scheme{
		Purelib: filepath.Join(root, "lib", "site-packages"),
		Platlib: filepath.Join(root, "lib", "site-packages"),
		Headers: filepath.Join(root, "include"),
		Scripts: filepath.Join(root, "bin"),
		Data:    root,
	}
}

// destFor maps a wheel-relative category name (as used by the
// "{name}-{version}.data/<category>" directory convention) to the
// scheme directory it unpacks into.
func (s Scheme) destFor(category string) (string, bool) {
	switch category {
	case "purelib":
		return s.Purelib, true
	case "platlib":
		return s.Platlib, true
	case "headers":
		return s.Headers, true
	case "scripts":
		return s.Scripts, true
	case "data":
		return s.Data, true
	}
	return "", false
}
