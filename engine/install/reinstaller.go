package install

import "github.com/petwheel/petwheel/engine"

// Reinstaller composes Install/Uninstall, replacing whatever version of a
// distribution is already present before installing the new wheel.
// Grounded on ReInstaller/InstallerLikeReinstaller: the __call__ path
// checks for a currently-installed version of each wheel's distribution
// name, uninstalls only those that are present, then installs. Petwheel
// always uninstalls the old payload since it doesn't track version
// numbers of already-unpacked distributions (ReInstaller.getInstalledVersion
// relies on a system package index petwheel doesn't have one of).
type Reinstaller struct {
	Scheme Scheme
}

// Reinstall uninstalls any existing copy of wheel's distribution, then
// installs wheel, mirroring ReInstaller.__call__'s
// extractPackageName -> uninstall -> install sequence.
func (r Reinstaller) Reinstall(wheel string) error {
	info, err := ReadInfo(wheel)
	if err != nil {
		return &engine.InstallFailedError{Wheel: wheel, Cause: err}
	}
	if err := Uninstall(info.Name, r.Scheme); err != nil {
		return err
	}
	return Install(wheel, r.Scheme)
}

// InstallOnly skips the uninstall step, for the common case of installing
// a distribution that isn't already present. Grounded on
// InstallerLikeReinstaller, which the original reserves for installer
// backends (unlike pip) that already overwrite cleanly on their own.
func (r Reinstaller) InstallOnly(wheel string) error {
	return Install(wheel, r.Scheme)
}
