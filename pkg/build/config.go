// Package build cooks recipes: it stages sources, runs the recipe's
// build command with a fixed environment, and installs the result under
// the install root at the recipe's deterministic sub-path.
package build

import (
	"fmt"
	"strings"
)

// Config is the full set of values a build command can see. Every
// recognized field is enumerated here; recipes receive them as
// COOKTOP_* environment variables and nothing else.
type Config struct {
	// Name and Version identify the package being cooked.
	Name    string
	Version string

	// Variant is the resolved variant tuple, e.g.
	// ["platform-linux", "arch-x86_64"].
	Variant []string

	// Root is the staging root for this cook. Sources are unpacked
	// beneath it and it is removed after a successful install.
	Root string

	// BuildPath is the directory the build command runs in.
	BuildPath string

	// InstallPath is where the cooked artifact must be installed:
	// InstallRoot/name/version/variant components.
	InstallPath string

	// InstallRoot is the root of the installed-packages tree.
	InstallRoot string
}

// Env renders the config as COOKTOP_* environment variable assignments,
// ready to append to os.Environ().
func (c Config) Env() []string {
	return []string{
		fmt.Sprintf("COOKTOP_NAME=%s", c.Name),
		fmt.Sprintf("COOKTOP_VERSION=%s", c.Version),
		fmt.Sprintf("COOKTOP_VARIANT=%s", strings.Join(c.Variant, " ")),
		fmt.Sprintf("COOKTOP_ROOT=%s", c.Root),
		fmt.Sprintf("COOKTOP_BUILD_PATH=%s", c.BuildPath),
		fmt.Sprintf("COOKTOP_INSTALL_PATH=%s", c.InstallPath),
		fmt.Sprintf("COOKTOP_INSTALL_ROOT=%s", c.InstallRoot),
	}
}
