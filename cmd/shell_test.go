package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/kamusis/imgrepo-cli/internal/cluster"
	"github.com/kamusis/imgrepo-cli/internal/config"
	"github.com/kamusis/imgrepo-cli/internal/features"
)

var testCanvas = features.Canvas{Width: 8, Height: 5, Filter: features.FilterCatmullRom}

// captureOutput redirects the print helpers into buffers for the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return &out, &errOut
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Canvas = testCanvas
	cfg.Clustering = cluster.Options{Seed: 1}
	return cfg
}

func writeGrey(t *testing.T, dir, name string, v uint8) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, testCanvas.Width, testCanvas.Height))
	for y := 0; y < testCanvas.Height; y++ {
		for x := 0; x < testCanvas.Width; x++ {
			img.Set(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	switch filepath.Ext(name) {
	case ".png":
		err = png.Encode(f, img)
	case ".gif":
		err = gif.Encode(f, img, nil)
	default:
		t.Fatalf("no encoder for %s", name)
	}
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// newTestShell builds a root view over dark.png, light.png and sky.png.
func newTestShell(t *testing.T) (*shell, map[string]string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"dark":  writeGrey(t, dir, "dark.png", 10),
		"light": writeGrey(t, dir, "light.png", 240),
		"sky":   writeGrey(t, dir, "sky.png", 235),
	}
	logger, _ := logtest.NewNullLogger()
	_, root, err := openRepository(testConfig(), logger, dir)
	if err != nil {
		t.Fatalf("openRepository: %v", err)
	}
	if root.Len() != 3 {
		t.Fatalf("root has %d images, want 3", root.Len())
	}
	return newShell(root), files
}

func TestShell_TextSearchThenReturn(t *testing.T) {
	out, _ := captureOutput(t)
	sh, files := newTestShell(t)
	root := sh.view

	if err := sh.run(strings.NewReader("search text\nsky\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sh.view == root || sh.view.Len() != 1 || sh.view.Images()[0] != files["sky"] {
		t.Fatalf("expected child view with sky.png, got %v", sh.view.Images())
	}
	if !strings.Contains(out.String(), "1 search result(s)") {
		t.Fatalf("missing result line:\n%s", out.String())
	}

	sh.handle("return")
	if sh.view != root {
		t.Fatalf("return did not reach root")
	}
	out.Reset()
	sh.handle("return")
	if sh.view != root || !strings.Contains(out.String(), msgAtRoot) {
		t.Fatalf("return at root should stay and warn:\n%s", out.String())
	}
}

func TestShell_NoMatchKeepsView(t *testing.T) {
	out, _ := captureOutput(t)
	sh, _ := newTestShell(t)
	root := sh.view

	sh.handle("search text")
	sh.handle("zebra")
	if sh.view != root {
		t.Fatalf("no-match search changed the view")
	}
	if !strings.Contains(out.String(), "No search results found") {
		t.Fatalf("missing no-match line:\n%s", out.String())
	}
}

func TestShell_EmptyTextQueryMatchesAll(t *testing.T) {
	captureOutput(t)
	sh, _ := newTestShell(t)
	sh.handle("search text")
	sh.handle("")
	if sh.view.IsRoot() || sh.view.Len() != 3 {
		t.Fatalf("empty query: depth %d, %d images", sh.view.Depth(), sh.view.Len())
	}
}

func TestShell_ImageSearch(t *testing.T) {
	captureOutput(t)
	sh, files := newTestShell(t)

	sh.handle("search images")
	sh.handle(files["dark"])
	found := false
	for _, p := range sh.view.Images() {
		if p == files["dark"] {
			found = true
		}
	}
	if sh.view.IsRoot() || !found {
		t.Fatalf("image search did not return a child view containing the query image: %v", sh.view.Images())
	}
}

func TestShell_InvalidQueryImage(t *testing.T) {
	_, errOut := captureOutput(t)
	sh, _ := newTestShell(t)
	root := sh.view

	sh.handle("search images")
	sh.handle(filepath.Join(t.TempDir(), "missing.png"))
	if sh.view != root {
		t.Fatalf("invalid query changed the view")
	}
	if !strings.Contains(errOut.String(), "Query image is not valid") {
		t.Fatalf("missing invalid query line:\n%s", errOut.String())
	}
}

func TestShell_ReturnHome(t *testing.T) {
	out, _ := captureOutput(t)
	sh, _ := newTestShell(t)
	root := sh.view

	sh.handle("return home")
	if !strings.Contains(out.String(), msgAtRoot) {
		t.Fatalf("return home at root should warn:\n%s", out.String())
	}

	for _, q := range []string{"", ".png", "png"} {
		sh.handle("search text")
		sh.handle(q)
	}
	if sh.view.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", sh.view.Depth())
	}
	sh.handle("return home")
	if sh.view != root {
		t.Fatalf("return home did not reach the root")
	}
}

func TestShell_CheckForCorruption(t *testing.T) {
	out, _ := captureOutput(t)
	sh, files := newTestShell(t)

	sh.handle("check for corruption")
	if !strings.Contains(out.String(), "No corrupted images") {
		t.Fatalf("untouched view reported corruption:\n%s", out.String())
	}

	writeGrey(t, filepath.Dir(files["light"]), "light.png", 100)
	out.Reset()
	sh.handle("check for corruption")
	got := out.String()
	if !strings.Contains(got, "Corrupted image! "+files["light"]) {
		t.Fatalf("modified file not flagged:\n%s", got)
	}
	if strings.Contains(got, files["dark"]) || strings.Contains(got, files["sky"]) {
		t.Fatalf("untouched files flagged:\n%s", got)
	}
}

func TestShell_ListAndClusters(t *testing.T) {
	out, _ := captureOutput(t)
	sh, files := newTestShell(t)

	sh.handle("list")
	for _, p := range files {
		if !strings.Contains(out.String(), p) {
			t.Fatalf("list is missing %s:\n%s", p, out.String())
		}
	}
	out.Reset()
	sh.handle("clusters")
	if got := strings.Count(out.String(), "● Cluster"); got != 2 {
		t.Fatalf("printed %d clusters, want 2:\n%s", got, out.String())
	}
}

func TestShell_UnknownCommandAndQuit(t *testing.T) {
	out, _ := captureOutput(t)
	sh, _ := newTestShell(t)
	root := sh.view

	if err := sh.run(strings.NewReader("bogus\nquit\nsearch text\nsky\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Command not recognized") {
		t.Fatalf("unknown command not reported:\n%s", out.String())
	}
	if sh.view != root || sh.pending != pendingNone {
		t.Fatalf("input after quit was processed")
	}
}

func TestShell_EmptyRepository(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	query := writeGrey(t, t.TempDir(), "q.png", 50)
	logger, _ := logtest.NewNullLogger()
	_, root, err := openRepository(testConfig(), logger, dir)
	if err != nil {
		t.Fatalf("openRepository: %v", err)
	}
	sh := newShell(root)
	sh.handle("search images")
	sh.handle(query)
	if sh.view != root {
		t.Fatalf("search on empty view changed the view")
	}
	if !strings.Contains(out.String(), "image search is disabled") {
		t.Fatalf("missing empty view warning:\n%s", out.String())
	}
}

func TestCheckImageDirArgs(t *testing.T) {
	dir := t.TempDir()
	file := writeGrey(t, dir, "a.png", 1)
	cases := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"no args", nil, true},
		{"too many", []string{dir, dir}, true},
		{"missing", []string{filepath.Join(dir, "nope")}, true},
		{"file", []string{file}, true},
		{"directory", []string{dir}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkImageDirArgs(rootCmd, tc.args)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSearchOnce(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	dark := writeGrey(t, dir, "dark.png", 10)
	writeGrey(t, dir, "light.png", 240)
	logger, _ := logtest.NewNullLogger()

	if err := searchOnce(testConfig(), logger, dir, searchQuery{text: "dark"}); err != nil {
		t.Fatalf("searchOnce(text): %v", err)
	}
	if !strings.Contains(out.String(), dark) || strings.Contains(out.String(), "light.png") {
		t.Fatalf("unexpected text results:\n%s", out.String())
	}

	out.Reset()
	if err := searchOnce(testConfig(), logger, dir, searchQuery{text: "zebra"}); err != nil {
		t.Fatalf("no match should not fail: %v", err)
	}
	if !strings.Contains(out.String(), "No search results found") {
		t.Fatalf("missing no-match line:\n%s", out.String())
	}

	out.Reset()
	if err := searchOnce(testConfig(), logger, dir, searchQuery{image: dark, byImage: true}); err != nil {
		t.Fatalf("searchOnce(image): %v", err)
	}
	if !strings.Contains(out.String(), dark) {
		t.Fatalf("image search lost the query image:\n%s", out.String())
	}

	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := searchOnce(testConfig(), logger, dir, searchQuery{image: bad, byImage: true}); err == nil {
		t.Fatalf("expected error for invalid query image")
	}
}

func TestPrintInspect(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	writeGrey(t, dir, "dark.png", 10)
	writeGrey(t, dir, "light.png", 240)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger, _ := logtest.NewNullLogger()
	_, root, err := openRepository(testConfig(), logger, dir)
	if err != nil {
		t.Fatal(err)
	}
	printInspect(root)
	got := out.String()
	for _, want := range []string{"=== Clusters ===", "FINGERPRINT", "=== Skipped ===", "notes.txt"} {
		if !strings.Contains(got, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, got)
		}
	}
	rec, _ := root.Record(filepath.Join(dir, "dark.png"))
	if !strings.Contains(got, "0x") || rec.Fingerprint == 0 {
		t.Fatalf("fingerprint not printed:\n%s", got)
	}
}
