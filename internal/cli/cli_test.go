package cli

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// workspace isolates config and cache lookups and writes a gradient image.
func workspace(t *testing.T) (dir, img string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	m := image.NewGray(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			m.SetGray(x, y, color.Gray{Y: uint8(x * 3)})
		}
	}
	img = filepath.Join(dir, "gradient.png")
	f, err := os.Create(img)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, m); err != nil {
		t.Fatal(err)
	}
	return dir, img
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func loadTestStudy(t *testing.T, ref string) *studio.Study {
	t.Helper()
	st, err := store.NewFileStore("")
	if err != nil {
		t.Fatal(err)
	}
	s, err := studio.Load(context.Background(), st, ref)
	if err != nil {
		t.Fatalf("Load(%s): %v", ref, err)
	}
	return s
}

func TestLocalWorkflow(t *testing.T) {
	dir, img := workspace(t)
	ref := filepath.Join(dir, "gradient.study.json")

	if err := execute(t, "new", img, "-n", "150"); err != nil {
		t.Fatalf("new: %v", err)
	}
	s := loadTestStudy(t, ref)
	if len(s.Channels) != 1 || s.Stippled() {
		t.Fatalf("new study: %d channels, stippled=%v", len(s.Channels), s.Stippled())
	}

	if err := execute(t, "stipple", ref, "--iterations", "5"); err != nil {
		t.Fatalf("stipple: %v", err)
	}
	if s = loadTestStudy(t, ref); !s.Stippled() {
		t.Fatal("study not stippled")
	}

	if err := execute(t, "solve", "local", ref, "--time-limit", "200ms"); err != nil {
		t.Fatalf("solve local: %v", err)
	}
	if s = loadTestStudy(t, ref); !s.Resolved() {
		t.Fatal("study not resolved")
	}

	out := filepath.Join(dir, "art")
	if err := execute(t, "render", ref, "-o", out, "-f", "png,svg"); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, p := range []string{out + ".png", out + ".svg"} {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Errorf("missing output %s: %v", p, err)
		}
	}

	tourFile := filepath.Join(dir, "tour.txt")
	if err := execute(t, "export", ref, "-f", "tour", "-o", tourFile); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := execute(t, "import-tour", ref, tourFile); err != nil {
		t.Fatalf("import-tour: %v", err)
	}
	if err := execute(t, "status", ref); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestStippleMissingStudy(t *testing.T) {
	dir, _ := workspace(t)
	if err := execute(t, "stipple", filepath.Join(dir, "nope.json")); err == nil {
		t.Error("expected error for missing study")
	}
}

func TestNewRejectsBadMode(t *testing.T) {
	_, img := workspace(t)
	if err := execute(t, "new", img, "-m", "hsv"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSubmitWithoutEmail(t *testing.T) {
	dir, img := workspace(t)
	ref := filepath.Join(dir, "gradient.study.json")
	if err := execute(t, "new", img, "-n", "150"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "stipple", ref, "--iterations", "2", "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "submit", ref); err == nil {
		t.Error("expected error without an email")
	}
}

func TestExportFormats(t *testing.T) {
	dir, img := workspace(t)
	ref := filepath.Join(dir, "gradient.study.json")
	if err := execute(t, "new", img, "-n", "150"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "export", ref, "-o", filepath.Join(dir, "x.json")); err == nil {
		t.Error("expected error exporting an unstippled channel")
	}
	if err := execute(t, "stipple", ref, "--iterations", "2"); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"json", "tsp"} {
		if err := execute(t, "export", ref, "-f", f, "-o", filepath.Join(dir, "pts."+f)); err != nil {
			t.Errorf("export -f %s: %v", f, err)
		}
	}
	if err := execute(t, "export", ref, "-f", "tour", "-o", filepath.Join(dir, "t.txt")); err == nil {
		t.Error("expected error exporting a missing tour")
	}
	if err := execute(t, "export", ref, "-f", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
