package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestStudyPath(t *testing.T) {
	tests := map[string]string{
		"cat.png":         "cat.study.json",
		"/img/photo.jpeg": "/img/photo.study.json",
		"noext":           "noext.study.json",
	}
	for in, want := range tests {
		if got := studyPath(in); got != want {
			t.Errorf("studyPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, ref, want string
	}{
		{"", "cat.study.json", "cat"},
		{"", "/a/b.json", "/a/b"},
		{"out.png", "cat.study.json", "out"},
		{"out.svg", "cat.study.json", "out"},
		{"out.final", "cat.study.json", "out.final"},
		{"dir/art", "x.json", "dir/art"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.ref); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.ref, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !reflect.DeepEqual(got, []string{"png"}) {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
	if got := parseFormats("png,svg"); !reflect.DeepEqual(got, []string{"png", "svg"}) {
		t.Errorf("parseFormats(png,svg) = %v", got)
	}
}

func TestParseChannels(t *testing.T) {
	got, err := parseChannels("0, 2")
	if err != nil || !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("parseChannels = %v, %v", got, err)
	}
	if got, err := parseChannels(""); err != nil || got != nil {
		t.Errorf("parseChannels(\"\") = %v, %v", got, err)
	}
	if _, err := parseChannels("a"); err == nil {
		t.Error("expected error")
	}
}
