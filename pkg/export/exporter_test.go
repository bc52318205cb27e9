package export

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/surxe/wrfexporter/pkg/errors"
)

func exporterFixture(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()

	exe := filepath.Join(dir, "BatchExport.exe")
	game := filepath.Join(dir, "game")
	mapping := filepath.Join(dir, "game.usmap")
	for _, f := range []string{exe, mapping} {
		if err := os.WriteFile(f, []byte("x"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(game, 0755); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "export")
	return NewExporter(exe, game, out, mapping, false), dir
}

func TestExportMissingInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Exporter)
	}{
		{"executable", func(e *Exporter) { e.exePath = "/nonexistent/BatchExport.exe" }},
		{"game dir", func(e *Exporter) { e.gameDir = "/nonexistent/game" }},
		{"mapping file", func(e *Exporter) { e.mappingFile = "/nonexistent/game.usmap" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := exporterFixture(t)
			tt.mutate(e)
			err := e.Export(context.Background())
			if err == nil {
				t.Fatal("Export succeeded with missing input")
			}
			if !stderrors.Is(err, errors.PathError) {
				t.Errorf("error kind = %v, want path_error", errors.KindOf(err))
			}
		})
	}
}

func TestExportCreatesOutputDir(t *testing.T) {
	e, dir := exporterFixture(t)

	// The invocation fails on the fake exe, but the output dir must exist
	// before the tool runs.
	_ = e.Export(context.Background())
	if _, err := os.Stat(filepath.Join(dir, "export")); err != nil {
		t.Errorf("output dir not created: %v", err)
	}
}

func TestExported(t *testing.T) {
	dir := t.TempDir()
	if Exported(filepath.Join(dir, "missing")) {
		t.Error("missing dir reported exported")
	}
	out := filepath.Join(dir, "export")
	if err := os.MkdirAll(out, 0755); err != nil {
		t.Fatal(err)
	}
	if Exported(out) {
		t.Error("empty dir reported exported")
	}
	if err := os.WriteFile(filepath.Join(out, "Gameplay.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exported(out) {
		t.Error("populated dir not reported exported")
	}
}
