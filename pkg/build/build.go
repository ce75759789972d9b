package build

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/recipe"
)

// Executor cooks recipes one at a time. It is not safe for concurrent
// use; cook order comes from the resolver's selection.
type Executor struct {
	// InstallRoot is the installed-packages tree artifacts land in.
	InstallRoot string

	// StagingRoot holds per-cook staging areas. Defaults to
	// os.TempDir()/cooktop.
	StagingRoot string

	// Fetcher stages recipe sources. Required for recipes with a
	// source section.
	Fetcher *Fetcher

	// KeepStaging leaves the staging area in place after the cook, for
	// debugging failed builds.
	KeepStaging bool

	// Verbose streams build output instead of capturing it.
	Verbose bool

	// Logger defaults to the package-level default logger.
	Logger *log.Logger
}

func (e *Executor) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

func (e *Executor) stagingRoot() string {
	if e.StagingRoot != "" {
		return e.StagingRoot
	}
	return filepath.Join(os.TempDir(), "cooktop")
}

// Cook builds and installs one recipe. The run ID keys the staging area
// so concurrent cooktop invocations never collide.
func (e *Executor) Cook(ctx context.Context, r *recipe.Recipe, runID string) error {
	if r.Installed {
		return errors.New(errors.ErrCodeInternal, "%s is already installed", r.Pkg)
	}

	version := r.Pkg.Range.String()
	installPath := filepath.Join(e.InstallRoot, r.SubPath())
	staging := filepath.Join(e.stagingRoot(), runID, string(r.Name())+"-"+version)
	buildPath := filepath.Join(staging, "build")

	logger := e.logger().With("pkg", r.Pkg.String())
	logger.Info("cooking", "staging", staging)

	if err := os.MkdirAll(buildPath, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBuildFailed, err, "creating staging area")
	}
	cleanup := func() {
		if e.KeepStaging {
			logger.Info("staging area kept", "path", staging)
			return
		}
		_ = os.RemoveAll(staging)
	}

	// Recipe files (patches, cook scripts) sit next to the build.
	if r.Dir != "" {
		if err := copyTree(r.Dir, staging); err != nil {
			cleanup()
			return errors.Wrap(errors.ErrCodeBuildFailed, err, "staging recipe files")
		}
	}

	if r.Source != (recipe.Source{}) {
		if e.Fetcher == nil {
			cleanup()
			return errors.New(errors.ErrCodeInternal, "no fetcher configured for %s", r.Pkg)
		}
		if err := e.Fetcher.Fetch(ctx, r.Source, buildPath); err != nil {
			cleanup()
			return err
		}
	}

	cfg := Config{
		Name:        string(r.Name()),
		Version:     version,
		Variant:     requestStrings(r.Variant),
		Root:        staging,
		BuildPath:   buildPath,
		InstallPath: installPath,
		InstallRoot: e.InstallRoot,
	}

	if r.BuildSpec.PreCook != "" {
		if err := e.run(ctx, logger, r.BuildSpec.PreCook, staging, cfg); err != nil {
			cleanup()
			return err
		}
	}

	if r.BuildSpec.Command != "" {
		if err := os.MkdirAll(installPath, 0755); err != nil {
			cleanup()
			return errors.Wrap(errors.ErrCodeBuildFailed, err, "creating install path")
		}
		command := r.BuildSpec.Command
		if len(r.BuildSpec.Args) > 0 {
			command += " " + strings.Join(r.BuildSpec.Args, " ")
		}
		if err := e.run(ctx, logger, command, buildPath, cfg); err != nil {
			// A half-installed artifact must not look installed.
			_ = os.RemoveAll(installPath)
			cleanup()
			return err
		}
	}

	if err := e.writeManifest(r, installPath); err != nil {
		_ = os.RemoveAll(installPath)
		cleanup()
		return err
	}

	cleanup()
	logger.Info("installed", "path", installPath)
	return nil
}

// run executes a shell command with the cook environment applied.
func (e *Executor) run(ctx context.Context, logger *log.Logger, command, dir string, cfg Config) error {
	logger.Debug("running", "command", command, "dir", dir)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), cfg.Env()...)

	var captured bytes.Buffer
	if e.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(tail(captured.String(), 30))
		if msg != "" {
			return errors.Wrap(errors.ErrCodeBuildFailed, err, "%s failed:\n%s", command, msg)
		}
		return errors.Wrap(errors.ErrCodeBuildFailed, err, "%s failed", command)
	}
	return nil
}

// manifest mirrors the cook.toml file the catalog scans for.
type manifest struct {
	Name     string   `toml:"name"`
	Version  string   `toml:"version"`
	Variant  []string `toml:"variant,omitempty"`
	Requires []string `toml:"requires,omitempty"`
}

// writeManifest marks the install path as a cooked package.
func (e *Executor) writeManifest(r *recipe.Recipe, installPath string) error {
	if err := os.MkdirAll(installPath, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBuildFailed, err, "creating install path")
	}
	data, err := toml.Marshal(manifest{
		Name:     string(r.Name()),
		Version:  r.Pkg.Range.String(),
		Variant:  requestStrings(r.Variant),
		Requires: requestStrings(r.Requires),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding manifest")
	}
	path := filepath.Join(installPath, "cook.toml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeBuildFailed, err, "writing %s", path)
	}
	return nil
}

func requestStrings(set *recipe.ConstraintSet) []string {
	reqs := set.Requests()
	out := make([]string, len(reqs))
	for i, req := range reqs {
		out[i] = req.String()
	}
	return out
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// copyTree copies a directory tree, following nothing special: regular
// files and directories only, which is all a recipe dir contains.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		info, err := d.Info()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode()&0777)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
