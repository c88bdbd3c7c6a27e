package metadata

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// setupCfgExtractor reads the declarative [metadata]/[options] sections of
// a setup.cfg. Grounded on SetuptoolsSetupCfgMetadataExtractor.
type setupCfgExtractor struct {
	file *ini.File
}

func newSetupCfgExtractor(path string) (*setupCfgExtractor, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowNonUniqueSections: false, AllowPythonMultilineValues: true}, path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &setupCfgExtractor{file: f}, nil
}

func (e *setupCfgExtractor) getName() (string, error) {
	sec, err := e.file.GetSection("metadata")
	if err != nil {
		return "", nil
	}
	return sec.Key("name").String(), nil
}

func (e *setupCfgExtractor) getBuildDeps() ([]string, error) {
	return e.multiValueList("setup_requires"), nil
}

func (e *setupCfgExtractor) getDeps() ([]string, error) {
	return e.multiValueList("install_requires"), nil
}

// multiValueList reads an [options] key whose value is setuptools'
// newline-delimited list convention (each requirement on its own line,
// optionally with a trailing "# comment"), stripping the comment per
// _removeTrailingComment.
func (e *setupCfgExtractor) multiValueList(key string) []string {
	sec, err := e.file.GetSection("options")
	if err != nil {
		return nil
	}
	raw := sec.Key(key).String()
	if raw == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = removeTrailingComment(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// removeTrailingComment mirrors _removeTrailingComment: everything from
// the first '#' onward is dropped, with no attempt at quote-awareness
// (the original doesn't attempt it either).
func removeTrailingComment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
