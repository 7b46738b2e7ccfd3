package cli

import (
	"io"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	for _, path := range [][]string{
		{"new"},
		{"stipple"},
		{"solve", "local"},
		{"solve", "online"},
		{"submit"},
		{"poll"},
		{"cancel"},
		{"render"},
		{"run"},
		{"export"},
		{"import-tour"},
		{"status"},
		{"cache", "clear"},
		{"cache", "path"},
		{"config", "show"},
		{"config", "path"},
		{"completion"},
	} {
		cmd, rest, err := root.Find(path)
		if err != nil || len(rest) != 0 {
			t.Errorf("Find(%v) = %v, %v, %v", path, cmd, rest, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("Find(%v) found %q", path, cmd.Name())
		}
	}
}

func TestRootPersistentFlags(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"config", "store"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing --%s", name)
		}
	}
}
