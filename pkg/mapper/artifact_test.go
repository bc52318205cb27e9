package mapper

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/surxe/wrfexporter/pkg/errors"
)

func writeDump(t *testing.T, dumpDir, sdkName string, mappingFiles ...string) {
	t.Helper()
	mappings := filepath.Join(dumpDir, sdkName, mappingsDirName)
	if err := os.MkdirAll(mappings, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range mappingFiles {
		if err := os.WriteFile(filepath.Join(mappings, f), []byte("usmap"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocateMapping(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "WRFrontiers-SDK", "WRFrontiers.usmap")

	path, err := LocateMapping(dir)
	if err != nil {
		t.Fatalf("LocateMapping: %v", err)
	}
	want := filepath.Join(dir, "WRFrontiers-SDK", mappingsDirName, "WRFrontiers.usmap")
	if path != want {
		t.Errorf("LocateMapping = %q, want %q", path, want)
	}
}

func TestLocateMappingIncomplete(t *testing.T) {
	t.Run("no sdk dirs", func(t *testing.T) {
		if _, err := LocateMapping(t.TempDir()); err == nil {
			t.Error("empty dump dir yielded a mapping")
		}
	})

	t.Run("multiple sdk dirs", func(t *testing.T) {
		dir := t.TempDir()
		writeDump(t, dir, "SDK-A", "a.usmap")
		writeDump(t, dir, "SDK-B", "b.usmap")
		if _, err := LocateMapping(dir); err == nil {
			t.Error("two SDK dirs yielded a mapping")
		}
	})

	t.Run("mappings dir missing", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "SDK"), 0755); err != nil {
			t.Fatal(err)
		}
		if _, err := LocateMapping(dir); err == nil {
			t.Error("SDK dir without Mappings yielded a mapping")
		}
	})

	t.Run("no mapping files", func(t *testing.T) {
		dir := t.TempDir()
		writeDump(t, dir, "SDK")
		if _, err := LocateMapping(dir); err == nil {
			t.Error("empty Mappings dir yielded a mapping")
		}
	})

	t.Run("multiple mapping files", func(t *testing.T) {
		dir := t.TempDir()
		writeDump(t, dir, "SDK", "a.usmap", "b.usmap")
		_, err := LocateMapping(dir)
		if err == nil {
			t.Fatal("two mapping files yielded a mapping")
		}
		if !strings.Contains(err.Error(), "found 2") {
			t.Errorf("error does not name the count: %v", err)
		}
	})
}

func TestClearArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "SDK-old", "stale.usmap")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ClearArtifacts(dir); err != nil {
		t.Fatalf("ClearArtifacts: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "SDK-old")); !os.IsNotExist(err) {
		t.Error("stale SDK dir survived")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("loose file was removed")
	}

	// A dump dir that does not exist yet is not an error.
	if err := ClearArtifacts(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("ClearArtifacts(missing) = %v", err)
	}
}

func TestCopyMapping(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.usmap")
	if err := os.WriteFile(src, []byte("usmap-data"), 0644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out", "game.usmap")
	err := CopyMapping(src, dest)
	if err == nil {
		t.Fatal("copy into missing parent dir succeeded")
	}
	if !stderrors.Is(err, errors.PathError) {
		t.Errorf("error kind = %v, want path_error", errors.KindOf(err))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}
	if err := CopyMapping(src, dest); err != nil {
		t.Fatalf("CopyMapping: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "usmap-data" {
		t.Errorf("copied content = %q", data)
	}
}

func TestMapped(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "game.usmap")

	if Mapped(file) {
		t.Error("missing file reported mapped")
	}
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if Mapped(file) {
		t.Error("empty file reported mapped")
	}
	if err := os.WriteFile(file, []byte("usmap"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Mapped(file) {
		t.Error("populated file not reported mapped")
	}
}

func TestGameExePath(t *testing.T) {
	got := GameExePath(filepath.FromSlash("/games/wrf"))
	if filepath.Base(got) != GameExeName {
		t.Errorf("GameExePath ends in %q", filepath.Base(got))
	}
	if !strings.Contains(got, "Binaries") {
		t.Errorf("GameExePath missing Binaries segment: %q", got)
	}
}
