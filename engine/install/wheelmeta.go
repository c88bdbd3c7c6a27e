package install

import (
	"archive/zip"
	"bufio"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/petwheel/petwheel/engine"
)

// wheelFilenameRx matches the wheel filename convention:
// {distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform tag}.whl
var wheelFilenameRx = regexp.MustCompile(`^([^-]+(?:_[^-]+)*)-([^-]+)-(?:\d[^-]*-)?[^-]+-[^-]+-[^-]+\.whl$`)

// Info is the handful of facts about a built wheel the installer needs:
// its declared distribution name, and whether its payload belongs in
// purelib or platlib. Grounded on ReInstaller.extractPackageName, which
// deliberately avoids a full unpack (WheelFile/distlib read it from the
// zip's central directory and a couple of named entries only).
type Info struct {
	Name         engine.PackageName
	Version      string
	RootIsPurelib bool
}

// ReadInfo extracts Info from wheelPath without unpacking its payload:
// the distribution name and version come straight off the filename (the
// wheel spec guarantees they match the built METADATA), and
// Root-Is-Purelib comes from the single small WHEEL entry in the zip's
// dist-info directory.
func ReadInfo(wheelPath string) (Info, error) {
	base := wheelPath
	if i := strings.LastIndexByte(wheelPath, '/'); i >= 0 {
		base = wheelPath[i+1:]
	}
	m := wheelFilenameRx.FindStringSubmatch(base)
	if m == nil {
		return Info{}, errors.Errorf("%q is not a valid wheel filename", base)
	}
	info := Info{Name: engine.Canon(m[1]), Version: m[2], RootIsPurelib: true}

	r, err := zip.OpenReader(wheelPath)
	if err != nil {
		return Info{}, errors.Wrapf(err, "opening wheel %s", wheelPath)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".dist-info/WHEEL") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Info{}, errors.Wrapf(err, "reading %s", f.Name)
		}
		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			line := scanner.Text()
			k, v, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			if strings.TrimSpace(k) == "Root-Is-Purelib" {
				info.RootIsPurelib = strings.EqualFold(strings.TrimSpace(v), "true")
			}
		}
		rc.Close()
		break
	}
	return info, nil
}
