package main

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// scanPhotos globs pattern and buckets every matched file by capture date.
// Files are read one at a time in match order.
func scanPhotos(pattern string, log zerolog.Logger) (*dateBuckets, error) {
	matches, err := doublestar.FilepathGlob(pattern,
		doublestar.WithFilesOnly(),
		doublestar.WithFailOnIOErrors(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to match %s: %w", pattern, err)
	}

	log.Debug().Str("pattern", pattern).Int("matches", len(matches)).Msg("glob expanded")

	buckets := newDateBuckets()
	for _, path := range matches {
		t, err := captureTime(path, log)
		if err != nil {
			return nil, err
		}
		buckets.add(PhotoRecord{CapturedAt: t, Path: path})
	}

	return buckets, nil
}
