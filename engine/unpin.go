package engine

// Unpin strips any upstream-declared version specifier from req, returning
// a copy. It never touches the marker: markers still gate whether the
// requirement is scheduled at all (section 3, Requirement; section 4.3,
// C8). Grounded on ipi/deps/unpin.py's polyfill path, which is the one the
// redesign keeps: the system deliberately ignores upstream-declared pins.
func Unpin(req Requirement) Requirement {
	req.Specifier = ""
	return req
}
