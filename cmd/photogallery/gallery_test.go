package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func readPage(t *testing.T, dir string, index int) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.html", index)))
	if err != nil {
		t.Fatalf("Failed to read page %d: %v", index, err)
	}
	return string(data)
}

// bucketsOfSizes creates one date per size, newest date first, each holding
// that many photos.
func bucketsOfSizes(sizes ...int) *dateBuckets {
	b := newDateBuckets()
	day := time.Date(2023, 6, 30, 12, 0, 0, 0, time.UTC)
	for i, n := range sizes {
		for j := 0; j < n; j++ {
			b.add(PhotoRecord{
				CapturedAt: day.AddDate(0, 0, -i),
				Path:       fmt.Sprintf("/photos/d%d_%02d.jpg", i, j),
			})
		}
	}
	return b
}

func TestRenderGallery_Example(t *testing.T) {
	dir := t.TempDir()

	b := newDateBuckets()
	b.add(PhotoRecord{CapturedAt: time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), Path: "/p/a.jpg"})
	b.add(PhotoRecord{CapturedAt: sentinelCaptureTime, Path: "/p/b.jpg"})
	b.add(PhotoRecord{CapturedAt: time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC), Path: "/p/c.jpg"})

	stats, err := renderGallery(dir, b, zerolog.Nop())
	if err != nil {
		t.Fatalf("renderGallery failed: %v", err)
	}
	if stats.Pages != 1 || stats.Photos != 3 {
		t.Errorf("Expected 1 page and 3 photos, got %+v", stats)
	}

	want := "<head><script src='./main.js'></script></head>" +
		"<h2>2023-05-01</h2>\n" +
		"<div>\n" +
		"<img loading='lazy' width='33%' src='/p/c.jpg' alt='/p/c.jpg'></img>\n" +
		"<img loading='lazy' width='33%' src='/p/a.jpg' alt='/p/a.jpg'></img>\n" +
		"</div>\n" +
		"<h2>1970-01-01</h2>\n" +
		"<div>\n" +
		"<img loading='lazy' width='33%' src='/p/b.jpg' alt='/p/b.jpg'></img>\n" +
		"</div>\n"
	if got := readPage(t, dir, 1); got != want {
		t.Errorf("Unexpected page content:\n%s\nwant:\n%s", got, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "2.html")); !os.IsNotExist(err) {
		t.Errorf("Expected no second page, stat returned %v", err)
	}

	script, err := os.ReadFile(filepath.Join(dir, "main.js"))
	if err != nil {
		t.Fatalf("Failed to read main.js: %v", err)
	}
	if !strings.Contains(string(script), "nextIndex < 1)") {
		t.Errorf("Expected page count 1 in navigation script:\n%s", script)
	}
}

func TestRenderGallery_Empty(t *testing.T) {
	dir := t.TempDir()

	stats, err := renderGallery(dir, newDateBuckets(), zerolog.Nop())
	if err != nil {
		t.Fatalf("renderGallery failed: %v", err)
	}
	if stats.Pages != 1 || stats.Photos != 0 {
		t.Errorf("Expected 1 empty page, got %+v", stats)
	}
	if got := readPage(t, dir, 1); got != pageHeader {
		t.Errorf("Expected header only, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, scriptName)); err != nil {
		t.Errorf("Expected main.js to be written: %v", err)
	}
}

func TestRenderGallery_Pagination(t *testing.T) {
	testCases := []struct {
		name      string
		sizes     []int
		wantPages []int // photos per page
	}{
		{"Under one page", []int{10, 10}, []int{20}},
		{"Exactly one page", []int{25}, []int{25, 0}},
		{"Oversized date overshoots", []int{30}, []int{30, 0}},
		{"Break after crossing group", []int{20, 10, 5}, []int{30, 5}},
		{"Group spanning two thresholds", []int{5, 60, 3}, []int{65, 3}},
		{"Several pages", []int{25, 25, 25, 1}, []int{25, 25, 25, 1}},
		{"Small groups", []int{24, 2, 23, 1, 4}, []int{26, 24, 4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()

			b := bucketsOfSizes(tc.sizes...)
			stats, err := renderGallery(dir, b, zerolog.Nop())
			if err != nil {
				t.Fatalf("renderGallery failed: %v", err)
			}
			if stats.Pages != len(tc.wantPages) {
				t.Fatalf("Expected %d pages, got %d", len(tc.wantPages), stats.Pages)
			}

			total := 0
			for i, want := range tc.wantPages {
				page := readPage(t, dir, i+1)
				if !strings.HasPrefix(page, pageHeader) {
					t.Errorf("Page %d is missing the header", i+1)
				}
				if got := strings.Count(page, "<img "); got != want {
					t.Errorf("Page %d: expected %d photos, got %d", i+1, want, got)
				}
				// Date groups are never split across pages
				if strings.Count(page, "<div>") != strings.Count(page, "</div>") {
					t.Errorf("Page %d has an unbalanced date group", i+1)
				}
				total += strings.Count(page, "<img ")
			}

			if total != b.Len() {
				t.Errorf("Expected %d photos across pages, got %d", b.Len(), total)
			}

			script, err := os.ReadFile(filepath.Join(dir, scriptName))
			if err != nil {
				t.Fatalf("Failed to read main.js: %v", err)
			}
			if want := fmt.Sprintf("nextIndex < %d)", stats.Pages); !strings.Contains(string(script), want) {
				t.Errorf("Expected %q in navigation script", want)
			}
		})
	}
}

func TestRenderGallery_DatesDescending(t *testing.T) {
	dir := t.TempDir()

	b := newDateBuckets()
	for i := 0; i < 40; i++ {
		// Spread over dates in an order unrelated to the date
		day := time.Date(2020, 1, 1+(i*7)%13, 0, 0, 0, 0, time.UTC)
		b.add(PhotoRecord{CapturedAt: day, Path: fmt.Sprintf("/p/%02d.jpg", i)})
	}

	stats, err := renderGallery(dir, b, zerolog.Nop())
	if err != nil {
		t.Fatalf("renderGallery failed: %v", err)
	}

	var dates []string
	for i := 1; i <= stats.Pages; i++ {
		for _, chunk := range strings.Split(readPage(t, dir, i), "<h2>")[1:] {
			date, _, _ := strings.Cut(chunk, "</h2>")
			dates = append(dates, date)
		}
	}

	if len(dates) != 13 {
		t.Fatalf("Expected 13 date headers, got %d", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if dates[i] >= dates[i-1] {
			t.Errorf("Dates not descending: %s follows %s", dates[i], dates[i-1])
		}
	}
}

func TestRenderGallery_Idempotent(t *testing.T) {
	b := bucketsOfSizes(7, 30, 12)

	first := t.TempDir()
	second := t.TempDir()
	if _, err := renderGallery(first, b, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if _, err := renderGallery(second, b, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(first)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		a, _ := os.ReadFile(filepath.Join(first, e.Name()))
		c, err := os.ReadFile(filepath.Join(second, e.Name()))
		if err != nil {
			t.Fatalf("Missing %s in second run: %v", e.Name(), err)
		}
		if string(a) != string(c) {
			t.Errorf("%s differs between runs", e.Name())
		}
	}
}

func TestRenderGallery_UnwritableDir(t *testing.T) {
	_, err := renderGallery(filepath.Join(t.TempDir(), "missing"), bucketsOfSizes(1), zerolog.Nop())
	if err == nil {
		t.Fatal("Expected error when output directory does not exist, got none")
	}
}

func TestResetOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	// Not existing yet is fine
	if err := resetOutputDir(dir); err != nil {
		t.Fatalf("resetOutputDir failed: %v", err)
	}

	stale := filepath.Join(dir, "99.html")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := resetOutputDir(dir); err != nil {
		t.Fatalf("resetOutputDir failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("Expected stale page to be removed, stat returned %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected output directory to exist: %v", err)
	}
}

func TestResetOutputDir_CreateFails(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := resetOutputDir(filepath.Join(blocker, "output")); err == nil {
		t.Fatal("Expected error when output directory cannot be created, got none")
	}
}

func TestNavigationScript(t *testing.T) {
	dir := t.TempDir()
	if err := writeNavigationScript(dir, 4); err != nil {
		t.Fatalf("writeNavigationScript failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, scriptName))
	if err != nil {
		t.Fatal(err)
	}
	script := string(data)

	for _, want := range []string{
		"let prev = `${prevIndex}.html`;",
		"let next = `${nextIndex}.html`;",
		"event.code == 'ArrowLeft' && prevIndex > 0",
		"event.code == 'ArrowRight' && nextIndex < 4)",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("Expected navigation script to contain %q", want)
		}
	}
	if strings.Contains(script, "%!") {
		t.Errorf("Navigation script has a formatting error:\n%s", script)
	}
}
