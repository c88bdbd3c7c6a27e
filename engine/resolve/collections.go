package resolve

import "github.com/petwheel/petwheel/engine"

// nameSet is an insertion-ordered set of package names, standing in for
// the plain dict-as-set idiom resolver.py uses for toFetch/ignored (a
// Python dict's keys preserve insertion order; a bare Go map does not,
// and discovery order feeds directly into install order).
type nameSet struct {
	order []engine.PackageName
	has   map[engine.PackageName]bool
}

func newNameSet() *nameSet {
	return &nameSet{has: make(map[engine.PackageName]bool)}
}

func (s *nameSet) Has(name engine.PackageName) bool { return s.has[name] }

func (s *nameSet) Add(name engine.PackageName) {
	if s.has[name] {
		return
	}
	s.has[name] = true
	s.order = append(s.order, name)
}

func (s *nameSet) Delete(name engine.PackageName) {
	if !s.has[name] {
		return
	}
	delete(s.has, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *nameSet) Names() []engine.PackageName { return s.order }

func (s *nameSet) Len() int { return len(s.order) }

// nameDirMap is an insertion-ordered map of package name to install
// directory, for the fetched/resolved collections.
type nameDirMap struct {
	order []engine.PackageName
	dir   map[engine.PackageName]string
}

func newNameDirMap() *nameDirMap {
	return &nameDirMap{dir: make(map[engine.PackageName]string)}
}

func (m *nameDirMap) Has(name engine.PackageName) bool {
	_, ok := m.dir[name]
	return ok
}

func (m *nameDirMap) Get(name engine.PackageName) (string, bool) {
	d, ok := m.dir[name]
	return d, ok
}

func (m *nameDirMap) Set(name engine.PackageName, dir string) {
	if _, ok := m.dir[name]; !ok {
		m.order = append(m.order, name)
	}
	m.dir[name] = dir
}

func (m *nameDirMap) Delete(name engine.PackageName) {
	if _, ok := m.dir[name]; !ok {
		return
	}
	delete(m.dir, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *nameDirMap) Names() []engine.PackageName { return m.order }

func (m *nameDirMap) Len() int { return len(m.order) }
