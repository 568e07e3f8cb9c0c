package dirtar_test

import (
	"errors"
	"testing"

	"github.com/sagarc03/dirtar"
)

func TestCleanRelPath(t *testing.T) {
	tt := []struct {
		Name    string
		Path    string
		Want    string
		Invalid bool
	}{
		// Basics
		{Name: "root path", Path: "/", Want: ""},
		{Name: "empty path", Path: "", Want: ""},
		{Name: "dot", Path: ".", Want: ""},
		{Name: "leading slash", Path: "/some/path", Want: "some/path"},
		{Name: "trailing slash", Path: "/some/path/", Want: "some/path"},
		{Name: "double slash", Path: "/a//b", Want: "a/b"},
		{Name: "single dot segment", Path: "/a/./b", Want: "a/b"},

		// Traversal
		{Name: "parent segment", Path: "/../etc/passwd", Invalid: true},
		{Name: "parent in middle", Path: "/a/../b", Invalid: true},
		{Name: "parent at end", Path: "/a/..", Invalid: true},

		// Dots inside names are fine
		{Name: "double dots in filename", Path: "/a/b..c", Want: "a/b..c"},
		{Name: "double dots prefix", Path: "/a/..b", Want: "a/..b"},
		{Name: "hidden file", Path: "/.hidden/file", Want: ".hidden/file"},

		// Forbidden characters
		{Name: "contains NUL", Path: "/some\x00path", Invalid: true},
		{Name: "contains backslash", Path: `/some\..\path`, Invalid: true},

		// Ordinary names
		{Name: "space", Path: "/some path/file.ext", Want: "some path/file.ext"},
		{Name: "unicode", Path: "/привет/世界/file.ext", Want: "привет/世界/file.ext"},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := dirtar.CleanRelPath(tc.Path)
			if tc.Invalid {
				if !errors.Is(err, dirtar.ErrInvalidInput) {
					t.Errorf("expected path %q to be rejected, got %q, %v", tc.Path, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.Path, err)
			}
			if got != tc.Want {
				t.Errorf("expected %q to clean to %q, got %q", tc.Path, tc.Want, got)
			}
		})
	}
}

func TestWebPath(t *testing.T) {
	tt := []struct {
		Rel  string
		Dir  bool
		Want string
	}{
		{Rel: "", Dir: true, Want: "/"},
		{Rel: "", Dir: false, Want: "/"},
		{Rel: "docs", Dir: true, Want: "/docs/"},
		{Rel: "docs/a.txt", Dir: false, Want: "/docs/a.txt"},
	}

	for _, tc := range tt {
		if got := dirtar.WebPath(tc.Rel, tc.Dir); got != tc.Want {
			t.Errorf("WebPath(%q, %v) = %q, want %q", tc.Rel, tc.Dir, got, tc.Want)
		}
	}
}

func TestParentWebPath(t *testing.T) {
	tt := map[string]string{
		"":          "",
		"docs":      "/",
		"docs/sub":  "/docs/",
		"a/b/c/d.x": "/a/b/c/",
	}

	for rel, want := range tt {
		if got := dirtar.ParentWebPath(rel); got != want {
			t.Errorf("ParentWebPath(%q) = %q, want %q", rel, got, want)
		}
	}
}

func TestArchiveBaseName(t *testing.T) {
	tt := []struct {
		Rel      string
		RootName string
		Want     string
	}{
		{Rel: "docs", RootName: "/srv/www", Want: "docs"},
		{Rel: "docs/sub", RootName: "/srv/www", Want: "sub"},
		{Rel: "", RootName: "/srv/www", Want: "www"},
		{Rel: "", RootName: ".", Want: "root"},
		{Rel: "", RootName: "/", Want: "root"},
		{Rel: "", RootName: "", Want: "root"},
	}

	for _, tc := range tt {
		if got := dirtar.ArchiveBaseName(tc.Rel, tc.RootName); got != tc.Want {
			t.Errorf("ArchiveBaseName(%q, %q) = %q, want %q", tc.Rel, tc.RootName, got, tc.Want)
		}
	}
}
