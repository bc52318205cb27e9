package mapper

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// mappingsDirName is the directory Dumper-7 writes inside its SDK dump.
const mappingsDirName = "Mappings"

// LocateMapping finds the mapping file inside a Dumper-7 output dir. The
// dump is complete when the dir holds exactly one SDK directory whose
// Mappings subdirectory holds exactly one file. Anything else means the
// dump is still in progress or the dir is polluted.
func LocateMapping(dumpDir string) (string, error) {
	sdkDirs, err := subdirs(dumpDir)
	if err != nil {
		return "", err
	}
	if len(sdkDirs) != 1 {
		return "", fmt.Errorf("expected exactly one SDK directory in %s, found %d", dumpDir, len(sdkDirs))
	}

	mappingsDir := filepath.Join(dumpDir, sdkDirs[0], mappingsDirName)
	entries, err := os.ReadDir(mappingsDir)
	if err != nil {
		return "", errors.Wrap(err, "mappings directory not readable")
	}

	var files []fs.DirEntry
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e)
		}
	}
	if len(files) != 1 {
		return "", fmt.Errorf("expected exactly one file in %s, found %d", mappingsDir, len(files))
	}

	return filepath.Join(mappingsDir, files[0].Name()), nil
}

// ClearArtifacts removes leftover SDK dumps so a finished dump can be
// told apart from a stale one. A missing dump dir is fine.
func ClearArtifacts(dumpDir string) error {
	sdkDirs, err := subdirs(dumpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, d := range sdkDirs {
		path := filepath.Join(dumpDir, d)
		slog.Info("stale_artifact_removed", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrap(err, "failed to remove stale artifact")
		}
	}
	return nil
}

// CopyMapping copies the located mapping file to its destination. The
// destination's parent directory must already exist.
func CopyMapping(src, dest string) error {
	parent := filepath.Dir(dest)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return errors.New(errors.PathError, "output directory %s does not exist", parent)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open mapping file")
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err, "failed to copy mapping file")
	}
	return out.Close()
}

// Mapped reports whether the mapping output file already exists. Used by
// the step gate's presence check.
func Mapped(outputFile string) bool {
	info, err := os.Stat(outputFile)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}
