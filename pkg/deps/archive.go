package deps

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// minZipSize rejects downloads that are obviously an HTML error page.
const minZipSize = 1000

// ValidateZip checks that the file is a plausible, readable ZIP archive.
func ValidateZip(zipPath string) error {
	info, err := os.Stat(zipPath)
	if err != nil {
		return errors.Wrap(err, "failed to stat archive")
	}
	if info.Size() < minZipSize {
		slog.Error("zip_too_small", "path", zipPath, "size", info.Size())
		return fmt.Errorf("file is too small (%d bytes), likely an error page", info.Size())
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrap(err, "not a valid ZIP archive")
	}
	defer r.Close()

	slog.Debug("zip_validated", "path", zipPath, "files", len(r.File))
	return nil
}

// ExtractZip extracts an archive into destDir under the validator's guard,
// then flattens a lone top-level directory.
func ExtractZip(zipPath, destDir string, v *Validator) error {
	v.Reset()

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrap(err, "failed to open archive")
	}
	defer r.Close()

	for _, f := range r.File {
		if err := v.ValidatePath(f.Name); err != nil {
			return errors.Wrap(err, "invalid path in archive")
		}

		target := filepath.Join(destDir, filepath.FromSlash(f.Name))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
			continue
		}

		size := int64(f.UncompressedSize64)
		if err := v.ValidateFileSize(size); err != nil {
			return err
		}
		if err := v.ValidateCompressionRatio(int64(f.CompressedSize64), size); err != nil {
			return err
		}
		if err := v.AddExtractedSize(size); err != nil {
			return err
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}

	if err := flatten(destDir); err != nil {
		return err
	}

	slog.Info("zip_extracted", "path", zipPath, "dest", destDir, "files", len(r.File))
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrap(err, "failed to create parent dir")
	}

	src, err := f.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open archive member")
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}

	// LimitReader caps the copy at the declared size so a lying header
	// cannot blow past the validator's accounting.
	if _, err := io.Copy(dst, io.LimitReader(src, int64(f.UncompressedSize64))); err != nil {
		dst.Close()
		return errors.Wrap(err, "failed to write file")
	}
	return dst.Close()
}

// flatten moves the contents of a lone top-level directory up one level,
// so releases zipped as tool-1.2.3/... install flat.
func flatten(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "failed to read extraction dir")
	}

	var subdirs, files []fs.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
		} else {
			files = append(files, e)
		}
	}
	if len(subdirs) != 1 || len(files) != 0 {
		return nil
	}

	sub := filepath.Join(dir, subdirs[0].Name())
	slog.Debug("zip_flattening", "subdir", subdirs[0].Name())

	items, err := os.ReadDir(sub)
	if err != nil {
		return errors.Wrap(err, "failed to read subdirectory")
	}
	for _, item := range items {
		dest := filepath.Join(dir, item.Name())
		if err := os.RemoveAll(dest); err != nil {
			return errors.Wrap(err, "failed to clear destination")
		}
		if err := os.Rename(filepath.Join(sub, item.Name()), dest); err != nil {
			return errors.Wrap(err, "failed to move item up")
		}
	}
	return os.Remove(sub)
}

// VerifyExecutable checks the expected executable landed at the install
// root, searching subdirectories and moving it up when needed.
func VerifyExecutable(dir, name string) error {
	target := filepath.Join(dir, name)

	if _, err := os.Stat(target); err != nil {
		found := ""
		walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && d.Name() == name {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if walkErr != nil {
			return errors.Wrap(walkErr, "failed to search for executable")
		}
		if found == "" {
			return fmt.Errorf("executable %s not found after extraction", name)
		}
		if err := os.Rename(found, target); err != nil {
			return errors.Wrap(err, "failed to move executable to root")
		}
		slog.Info("executable_relocated", "from", found, "to", target)
	}

	if err := os.Chmod(target, 0755); err != nil {
		return errors.Wrap(err, "failed to chmod executable")
	}
	slog.Info("executable_verified", "path", target)
	return nil
}
