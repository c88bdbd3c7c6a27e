package engine

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Registry resolves a PackageName to a RegistryEntry. Implementations are
// either a leaf (a flat map) or compound (an ordered list of children).
// Every registry carries a human-readable Name for diagnostics, following
// ipi/registries.py's IRegistry.
type Registry interface {
	// RegistryName is the human-readable identifier shown in diagnostics.
	RegistryName() string
	// Lookup resolves name, returning the entry and the chain of registry
	// names traversed to find it (outermost first).
	Lookup(name PackageName) (RegistryEntry, []string, error)
}

// LeafRegistry is a flat map of canonical names to entries.
type LeafRegistry struct {
	Name    string
	Entries map[PackageName]RegistryEntry
}

// NewLeafRegistry builds an empty leaf registry.
func NewLeafRegistry(name string) *LeafRegistry {
	return &LeafRegistry{Name: name, Entries: make(map[PackageName]RegistryEntry)}
}

func (r *LeafRegistry) RegistryName() string { return r.Name }

func (r *LeafRegistry) Lookup(name PackageName) (RegistryEntry, []string, error) {
	canon := Canon(string(name))
	if e, ok := r.Entries[canon]; ok {
		return e, []string{r.Name}, nil
	}
	return RegistryEntry{}, nil, &RegistryNotFoundError{Name: canon}
}

// CompoundRegistry tries its children in declaration order; the first hit
// wins. Ordering is the user's trust ordering.
type CompoundRegistry struct {
	Name     string
	Children []Registry
}

// NewCompoundRegistry builds a compound registry over children, searched in
// the given order.
func NewCompoundRegistry(name string, children ...Registry) *CompoundRegistry {
	return &CompoundRegistry{Name: name, Children: children}
}

func (r *CompoundRegistry) RegistryName() string { return r.Name }

func (r *CompoundRegistry) Lookup(name PackageName) (RegistryEntry, []string, error) {
	for _, child := range r.Children {
		entry, path, err := child.Lookup(name)
		if err == nil {
			return entry, append([]string{r.Name}, path...), nil
		}
		var nf *RegistryNotFoundError
		if !errors.As(err, &nf) {
			return RegistryEntry{}, nil, err
		}
	}
	return RegistryEntry{}, nil, &RegistryNotFoundError{Name: Canon(string(name))}
}

// tsvColumns are the recognized TSV columns, in canonical order for
// round-trip emission.
var tsvColumns = []string{"name", "repo", "fetcher", "subDir", "refSpec", "depth"}

// FromTSV parses a tab-separated registry source. Columns recognized:
// name, repo, fetcher, subDir, refSpec, depth. Lines starting with '#' are
// comments. If name is empty, it is derived from the repo URI's last path
// segment with any ".git" suffix stripped.
func FromTSV(r io.Reader, name string) (*LeafRegistry, error) {
	scanner := bufio.NewScanner(r)
	reg := NewLeafRegistry(name)

	var header []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			header = fields
			continue
		}

		row := make(map[string]string, len(fields))
		for i, f := range fields {
			if i >= len(header) {
				break
			}
			row[header[i]] = f
		}
		for k := range row {
			if !isKnownTSVColumn(k) {
				// unknown key: ignored; no warning is emitted
			}
		}

		entry, err := entryFromTSVRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "registry %s: line %d", name, lineNo)
		}
		reg.Entries[entry.Name] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading registry %s", name)
	}
	return reg, nil
}

func isKnownTSVColumn(k string) bool {
	for _, c := range tsvColumns {
		if c == k {
			return true
		}
	}
	return false
}

func entryFromTSVRow(row map[string]string) (RegistryEntry, error) {
	repo := row["repo"]
	rawName := row["name"]
	if rawName == "" {
		if repo == "" {
			return RegistryEntry{}, errors.New("row has neither name nor repo")
		}
		rawName = derivePackageNameFromURI(repo)
	}
	canon := Canon(rawName)

	fetcherTok := row["fetcher"]
	ft, ok := ParseFetcherType(fetcherTok, repo)
	if !ok {
		return RegistryEntry{}, errors.Errorf("unknown fetcher token %q", fetcherTok)
	}

	depth := 1
	if d := row["depth"]; d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			return RegistryEntry{}, errors.Wrapf(err, "invalid depth %q", d)
		}
		depth = parsed
	}

	return RegistryEntry{
		Name: canon,
		Source: SourceDescriptor{
			Type:    ft,
			RepoURI: repo,
			SubDir:  row["subDir"],
			RefSpec: row["refSpec"],
			Depth:   depth,
		},
	}, nil
}

// derivePackageNameFromURI mirrors ipi/registries.py's
// derivePackageNameFromURI: the last path segment of the URI, with a
// trailing ".git" stripped.
func derivePackageNameFromURI(uri string) string {
	base := path.Base(uri)
	return strings.TrimSuffix(strings.TrimSuffix(base, "/"), ".git")
}

// ToTSV emits the registry as TSV, round-tripping through FromTSV. A name
// is omitted from the "name" column when it equals the name that would be
// derived from the repo URI, matching ipi/registries.py's
// emitConfigRecords.
func (r *LeafRegistry) ToTSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, strings.Join([]string{"name", "repo", "fetcher", "subDir", "refSpec", "depth"}, "\t")); err != nil {
		return err
	}
	for _, name := range sortedNames(r.Entries) {
		e := r.Entries[name]
		nameCol := ""
		if derivePackageNameFromURI(e.Source.RepoURI) != string(e.Name) {
			nameCol = string(e.Name)
		}
		depth := ""
		if e.Source.Depth != 1 {
			depth = strconv.Itoa(e.Source.Depth)
		}
		fetcherTok := ""
		if e.Source.Type != FetcherGit {
			fetcherTok = e.Source.Type.String()
		}
		row := []string{nameCol, e.Source.RepoURI, fetcherTok, e.Source.SubDir, e.Source.RefSpec, depth}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func sortedNames(m map[PackageName]RegistryEntry) []PackageName {
	names := make([]PackageName, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	// simple insertion sort; registries are small, and this keeps emission
	// deterministic for the round-trip law without pulling in sort for one
	// call site's worth of savings.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
