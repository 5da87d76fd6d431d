package app

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

func writeJSONFile(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	prefsPath := filepath.Join(dir, "prefs.yaml")
	if err := os.WriteFile(prefsPath, []byte("glonass: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := RenderOptions{
		SnapshotPath: writeJSONFile(t, dir, "sats.json", threeSats()),
		FixPath:      writeJSONFile(t, dir, "fix.json", gnss.LocationFix{AccuracyMeters: 30, HasAccuracy: true}),
		PrefsPath:    prefsPath,
		OutPath:      filepath.Join(dir, "out.png"),
		Width:        300,
		Height:       200,
		Badges:       true,
	}
	counters, err := RenderFile(opts)
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	if counters.Visible != 2 || counters.Used != 2 {
		t.Errorf("counters = %+v, want GLONASS filtered out", counters)
	}

	f, err := os.Open(opts.OutPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Errorf("bounds = %v", b)
	}
}

func TestRenderFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := RenderFile(RenderOptions{Width: 10, Height: 10}); err == nil {
		t.Error("missing output path accepted")
	}
	if _, err := RenderFile(RenderOptions{OutPath: filepath.Join(dir, "x.png")}); err == nil {
		t.Error("zero size accepted")
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := RenderFile(RenderOptions{SnapshotPath: bad, OutPath: filepath.Join(dir, "x.png"), Width: 10, Height: 10}); err == nil {
		t.Error("corrupt snapshot accepted")
	}
}

func TestRenderFile_AbsentInputs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.png")
	counters, err := RenderFile(RenderOptions{OutPath: out, Width: 64, Height: 64})
	if err != nil {
		t.Fatal(err)
	}
	if counters.Visible != 0 || counters.Used != 0 {
		t.Errorf("counters = %+v", counters)
	}
}
