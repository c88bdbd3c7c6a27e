package install

import (
	"os"

	shutil "github.com/termie/go-shutil"
)

// copyTree moves a staged file or directory into its final scheme
// destination using go-shutil, the same recursive-copy library golang-dep
// vendors (it uses shutil.CopyTree for project vendor trees); petwheel
// repurposes it here for wheel payload staging-to-scheme copies instead.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		_, err := shutil.Copy(src, dst, true)
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		if err := mergeInto(src, dst); err != nil {
			return err
		}
		return nil
	}
	_, err = shutil.CopyTree(src, dst, nil)
	return err
}

// mergeInto handles the case where dst already exists (e.g. a second
// package installing into the same site-packages directory):
// shutil.CopyTree refuses to copy into an existing destination, so
// petwheel walks one level and recurses per-entry instead.
func mergeInto(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyTree(src+string(os.PathSeparator)+e.Name(), dst+string(os.PathSeparator)+e.Name()); err != nil {
			return err
		}
	}
	return nil
}
