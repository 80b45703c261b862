package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	photosPerPage = 25

	pageHeader = "<head><script src='./main.js'></script></head>"
	scriptName = "main.js"
)

// navigationScript binds the arrow keys to the neighbouring pages. The %d
// verb receives the total page count.
const navigationScript = `let href = window.location;
let split = href.pathname.split('/');
let lastIndex = split.length - 1;
let filename = split[lastIndex];

let splitPath = filename.split('.');
let num = parseInt(splitPath[0]);
let prevIndex = num - 1;
let nextIndex = num + 1;
let prev = ` + "`${prevIndex}.html`" + `;
let next = ` + "`${nextIndex}.html`" + `;

let prevPath = [...split];
let nextPath = [...split];
prevPath[lastIndex] = prev;
nextPath[lastIndex] = next;

prevPath = prevPath.join('/');
nextPath = nextPath.join('/');

console.log(prevPath, nextPath);

window.addEventListener(
  "keydown",
  (event) => {
    if (event.code == 'ArrowLeft' && prevIndex > 0) {
      window.location.href = prevPath;
    } else if (event.code == 'ArrowRight' && nextIndex < %d) {
      window.location.href = nextPath;
    }
  },
);
`

// resetOutputDir deletes dir and everything in it, then creates it empty.
// A failed delete is ignored; a failed create is not.
func resetOutputDir(dir string) error {
	_ = os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// galleryStats summarizes a rendered gallery
type galleryStats struct {
	Pages  int
	Photos int
}

// renderGallery writes the numbered HTML pages and main.js into dir.
//
// Dates are emitted newest first and each date's photos in reverse insertion
// order. A new page starts once the running photo count has passed another
// multiple of 25, checked only after a date group is closed. Groups are never
// split, so a page can hold more than 25 photos and the last page can be empty.
func renderGallery(dir string, buckets *dateBuckets, log zerolog.Logger) (galleryStats, error) {
	pages := &pageWriter{dir: dir, log: log}
	defer pages.close()

	if err := pages.next(); err != nil {
		return galleryStats{}, err
	}

	photoCount := 0
	boundary := 0
	for _, date := range buckets.newestFirst() {
		pages.printf("<h2>%s</h2>\n", date)
		pages.printf("<div>\n")

		records := buckets.records(date)
		for i := len(records) - 1; i >= 0; i-- {
			photoCount++
			path := records[i].Path
			pages.printf("<img loading='lazy' width='33%%' src='%s' alt='%s'></img>\n", path, path)
		}

		pages.printf("</div>\n")

		if photoCount/photosPerPage > boundary {
			boundary = photoCount / photosPerPage
			if err := pages.next(); err != nil {
				return galleryStats{}, err
			}
		}
	}

	if err := pages.close(); err != nil {
		return galleryStats{}, err
	}

	if err := writeNavigationScript(dir, pages.index); err != nil {
		return galleryStats{}, err
	}

	return galleryStats{Pages: pages.index, Photos: photoCount}, nil
}

func writeNavigationScript(dir string, pageCount int) error {
	path := filepath.Join(dir, scriptName)
	if err := os.WriteFile(path, []byte(fmt.Sprintf(navigationScript, pageCount)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// pageWriter owns the page file currently being written. The first write
// error sticks and is reported when the page is closed.
type pageWriter struct {
	dir   string
	log   zerolog.Logger
	index int
	file  *os.File
	w     *bufio.Writer
	err   error
}

// next closes the current page and starts the following one
func (p *pageWriter) next() error {
	if err := p.close(); err != nil {
		return err
	}

	p.index++
	path := filepath.Join(p.dir, strconv.Itoa(p.index)+".html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	p.file = f
	p.w = bufio.NewWriter(f)
	p.printf("%s", pageHeader)
	return nil
}

func (p *pageWriter) printf(format string, a ...any) {
	if p.err != nil || p.w == nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func (p *pageWriter) close() error {
	if p.file == nil {
		return nil
	}

	f := p.file
	p.file = nil

	err := p.err
	if err == nil {
		err = p.w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}

	p.log.Debug().Int("page", p.index).Str("file", f.Name()).Msg("page written")
	return nil
}
