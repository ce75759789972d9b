package build

import (
	"archive/tar"
	"archive/zip"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
	"lukechampine.com/blake3"

	"github.com/cooktop/cooktop/pkg/cache"
	"github.com/cooktop/cooktop/pkg/errors"
	"github.com/cooktop/cooktop/pkg/observability"
	"github.com/cooktop/cooktop/pkg/recipe"
)

// Fetcher materializes recipe sources into a staging directory:
// archives are downloaded, checksum-verified and unpacked; git sources
// are cloned shallowly.
type Fetcher struct {
	// DownloadDir keeps downloaded archives across cooks so a failed
	// build does not re-download. Required.
	DownloadDir string

	// Progress draws a progress bar on stderr during downloads.
	Progress bool

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Fetch stages the source described by src into dir. Archives with a
// single top-level directory are flattened so the build always starts
// at the source root.
func (f *Fetcher) Fetch(ctx context.Context, src recipe.Source, dir string) error {
	switch {
	case src.Git != "":
		return f.clone(ctx, src, dir)
	case src.URL != "":
		archive, err := f.download(ctx, src)
		if err != nil {
			return err
		}
		return unpack(archive, dir)
	default:
		// No source: the build command fetches its own inputs.
		return os.MkdirAll(dir, 0755)
	}
}

// download fetches the archive into DownloadDir, reusing a previous
// download when its checksum still matches.
func (f *Fetcher) download(ctx context.Context, src recipe.Source) (string, error) {
	if err := os.MkdirAll(f.DownloadDir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFetchFailed, err, "creating download dir")
	}
	dest := filepath.Join(f.DownloadDir, filepath.Base(src.URL))

	if _, err := os.Stat(dest); err == nil {
		if src.Checksum == "" || verify(dest, src.Checksum) == nil {
			return dest, nil
		}
		// Stale or corrupt; re-download.
		_ = os.Remove(dest)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	var size int64
	err := cache.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return cache.Retryable(fmt.Errorf("%w: %s: %s", cache.ErrNetwork, src.URL, resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: %s", src.URL, resp.Status)
		}

		tmp, err := os.CreateTemp(f.DownloadDir, ".download-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		var w io.Writer = tmp
		if f.Progress {
			bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(src.URL))
			w = io.MultiWriter(tmp, bar)
		}
		n, err := io.Copy(w, resp.Body)
		if err != nil {
			tmp.Close()
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
		}
		size = n
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), dest)
	})
	observability.Cook().OnFetch(ctx, src.URL, size, time.Since(start), err)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFetchFailed, err, "downloading %s", src.URL)
	}

	if src.Checksum != "" {
		if err := verify(dest, src.Checksum); err != nil {
			_ = os.Remove(dest)
			return "", err
		}
	}
	return dest, nil
}

// verify checks the file against a blake3 hex digest.
func verify(path, want string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFetchFailed, err, "opening %s", path)
	}
	defer file.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, file); err != nil {
		return errors.Wrap(errors.ErrCodeFetchFailed, err, "hashing %s", path)
	}
	got := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(got, want) {
		return errors.New(errors.ErrCodeChecksumMismatch,
			"%s: checksum %s does not match expected %s", filepath.Base(path), got, want)
	}
	return nil
}

// clone performs a shallow recursive git clone.
func (f *Fetcher) clone(ctx context.Context, src recipe.Source, dir string) error {
	args := []string{"clone", "--recursive", "--depth", "1"}
	if src.Branch != "" {
		args = append(args, "--branch", src.Branch)
	}
	args = append(args, src.Git, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrap(errors.ErrCodeFetchFailed, err,
			"cloning %s: %s", src.Git, strings.TrimSpace(string(out)))
	}
	return nil
}

// unpack extracts an archive into dir, flattening a single top-level
// directory if present.
func unpack(archive, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeFetchFailed, err, "creating %s", dir)
	}

	var err error
	switch {
	case strings.HasSuffix(archive, ".tar.gz") || strings.HasSuffix(archive, ".tgz"):
		err = untarWith(archive, dir, func(r io.Reader) (io.Reader, error) {
			gz, err := pgzip.NewReader(r)
			if err != nil {
				return nil, err
			}
			return gz, nil
		})
	case strings.HasSuffix(archive, ".tar.xz"):
		err = untarWith(archive, dir, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(archive, ".tar.zst"):
		err = untarWith(archive, dir, func(r io.Reader) (io.Reader, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		})
	case strings.HasSuffix(archive, ".tar"):
		err = untarWith(archive, dir, func(r io.Reader) (io.Reader, error) {
			return r, nil
		})
	case strings.HasSuffix(archive, ".zip"):
		err = unzip(archive, dir)
	default:
		return errors.New(errors.ErrCodeFetchFailed, "unsupported archive format: %s", archive)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeFetchFailed, err, "unpacking %s", filepath.Base(archive))
	}

	return flatten(dir)
}

// untarWith streams a tar archive through the given decompressor.
func untarWith(archive, dir string, wrap func(io.Reader) (io.Reader, error)) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	decompressed, err := wrap(file)
	if err != nil {
		return err
	}
	if closer, ok := decompressed.(io.Closer); ok {
		defer closer.Close()
	}

	tr := tar.NewReader(decompressed)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := securePath(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func unzip(archive, dir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := securePath(dir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		in, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode()&0777)
		if err != nil {
			in.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// securePath joins an archive member name onto dir, rejecting entries
// that would escape it.
func securePath(dir, name string) (string, error) {
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return filepath.Join(dir, clean), nil
}

// flatten moves the contents of a lone top-level directory up into dir.
func flatten(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	inner := filepath.Join(dir, entries[0].Name())
	children, err := os.ReadDir(inner)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := os.Rename(filepath.Join(inner, child.Name()), filepath.Join(dir, child.Name())); err != nil {
			return err
		}
	}
	return os.Remove(inner)
}
