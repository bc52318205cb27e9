package steam

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseManifestFileName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "manifest_1491005_7167545181636357382.txt", want: "7167545181636357382"},
		{name: "manifest_1491005_1.txt", want: "1"},
		{name: "manifest_1491005_.txt", wantErr: true},
		{name: "manifest_1491005_abc.txt", wantErr: true},
		{name: "notes.txt", wantErr: true},
		{name: "manifest_1491005_1_2.txt", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseManifestFileName(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseManifestFileName(%q) succeeded, want error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseManifestFileName(%q) = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseManifestFileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestManifestIDFromDir(t *testing.T) {
	dir := t.TempDir()

	if _, err := manifestIDFromDir(dir); err == nil {
		t.Error("empty dir yielded a manifest id")
	}

	name := "manifest_" + DepotID + "_7167545181636357382.txt"
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
		t.Fatal(err)
	}
	id, err := manifestIDFromDir(dir)
	if err != nil {
		t.Fatalf("manifestIDFromDir: %v", err)
	}
	if id != "7167545181636357382" {
		t.Errorf("manifestIDFromDir = %q", id)
	}
}

func TestInstalledManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	if got := InstalledManifest(dir); got != "" {
		t.Errorf("InstalledManifest(empty dir) = %q, want empty", got)
	}
	if err := writeManifestFile(dir, "7167545181636357382"); err != nil {
		t.Fatalf("writeManifestFile: %v", err)
	}
	if got := InstalledManifest(dir); got != "7167545181636357382" {
		t.Errorf("InstalledManifest = %q", got)
	}
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBaseArgs(t *testing.T) {
	d := NewDownloader("DepotDownloader.exe", t.TempDir(), "user", "pass")
	args := d.baseArgs("/tmp/out")

	want := map[string]string{
		"-app":      AppID,
		"-depot":    DepotID,
		"-username": "user",
		"-password": "pass",
		"-dir":      "/tmp/out",
	}
	for flag, value := range want {
		if !hasArgPair(args, flag, value) {
			t.Errorf("args missing %s %s: %v", flag, value, args)
		}
	}
}

// The resolved manifest id must reach the tool, or a pinned MANIFEST_ID
// would silently download whatever is latest.
func TestDownloadArgsCarryManifestID(t *testing.T) {
	gameDir := t.TempDir()
	d := NewDownloader("DepotDownloader.exe", gameDir, "user", "pass")

	args := d.downloadArgs("7167545181636357382")
	if !hasArgPair(args, "-manifest", "7167545181636357382") {
		t.Errorf("args missing -manifest: %v", args)
	}
	if !hasArgPair(args, "-dir", gameDir) {
		t.Errorf("args missing game dir: %v", args)
	}

	found := false
	for _, a := range args {
		if a == "-validate" {
			found = true
		}
	}
	if !found {
		t.Errorf("args missing -validate: %v", args)
	}
}

func TestDownloadRequiresResolvedManifest(t *testing.T) {
	d := NewDownloader("DepotDownloader.exe", t.TempDir(), "user", "pass")
	if _, err := d.Download(context.Background(), ""); err == nil {
		t.Fatal("download with unresolved manifest id succeeded")
	}
}
