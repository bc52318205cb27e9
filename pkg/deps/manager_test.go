package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstalledVersionRoundTrip(t *testing.T) {
	dir := t.TempDir()

	if got := InstalledVersion(dir); got != "" {
		t.Errorf("InstalledVersion(empty dir) = %q, want empty", got)
	}
	if err := writeVersionFile(dir, "v3.4.0"); err != nil {
		t.Fatalf("writeVersionFile: %v", err)
	}
	if got := InstalledVersion(dir); got != "v3.4.0" {
		t.Errorf("InstalledVersion = %q, want v3.4.0", got)
	}
}

func TestInstalledVersionTrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, versionFileName), []byte("v1.0.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := InstalledVersion(dir); got != "v1.0.0" {
		t.Errorf("InstalledVersion = %q, want v1.0.0", got)
	}
}

func TestInstalled(t *testing.T) {
	dir := t.TempDir()
	spec := DepotDownloaderSpec(dir)

	if Installed(spec) {
		t.Error("empty dir reported installed")
	}

	if err := os.WriteFile(filepath.Join(dir, spec.Executable), []byte("bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if Installed(spec) {
		t.Error("executable without version marker reported installed")
	}

	if err := writeVersionFile(dir, "v3.4.0"); err != nil {
		t.Fatal(err)
	}
	if !Installed(spec) {
		t.Error("complete install not reported installed")
	}
}

func TestToolSpecs(t *testing.T) {
	dd := DepotDownloaderSpec("/tools/dd")
	if dd.Owner != "SteamRE" || dd.Repo != "DepotDownloader" {
		t.Errorf("unexpected DepotDownloader source %s/%s", dd.Owner, dd.Repo)
	}
	if dd.Executable != "DepotDownloader.exe" {
		t.Errorf("unexpected DepotDownloader executable %s", dd.Executable)
	}

	be := BatchExportSpec("/tools/be")
	if be.Owner != "Surxe" || be.Repo != "batch_export" {
		t.Errorf("unexpected BatchExport source %s/%s", be.Owner, be.Repo)
	}
	if len(be.AssetPatterns) != 2 {
		t.Errorf("BatchExport wants the archive and the README, got %v", be.AssetPatterns)
	}
}

func TestFindAsset(t *testing.T) {
	r := &Release{
		TagName: "v3.4.0",
		Assets: []Asset{
			{Name: "DepotDownloader-linux-x64.zip"},
			{Name: "DepotDownloader-windows-x64.zip"},
			{Name: "DepotDownloader-macos-arm64.zip"},
		},
	}

	asset, ok := r.FindAsset("windows-x64.zip")
	if !ok {
		t.Fatal("windows asset not found")
	}
	if asset.Name != "DepotDownloader-windows-x64.zip" {
		t.Errorf("FindAsset picked %s", asset.Name)
	}

	if _, ok := r.FindAsset("freebsd"); ok {
		t.Error("FindAsset matched a nonexistent pattern")
	}
}
