package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abema/go-mp4"
	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
)

const (
	// captureTimeLayout is the display form of an EXIF date/time
	captureTimeLayout = "2006-01-02 15:04:05"

	// appleEpochOffset is the number of seconds between 1904-01-01 and 1970-01-01
	appleEpochOffset = 2082844800
)

// sentinelCaptureTime stands in for files without a usable capture time
var sentinelCaptureTime = time.Unix(0, 0).UTC()

var errNoCaptureTime = errors.New("no capture time in metadata")

// captureTime returns when the file at path was taken. Metadata problems
// fall back to sentinelCaptureTime; only a file that cannot be opened is an error.
func captureTime(path string, log zerolog.Logger) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := extractCreationDateTimeFromMetadata(f, getContainer(path))
	if err != nil {
		log.Debug().Str("path", path).Err(err).Msg("using epoch as capture time")
		return sentinelCaptureTime, nil
	}
	return t, nil
}

func extractCreationDateTimeFromMetadata(r io.ReadSeeker, container Container) (time.Time, error) {
	switch container {
	case ISOBMFFContainer:
		return extractVideoCreationTime(r)
	case ExifContainer:
		return extractDateTimeOriginal(r)
	}
	return time.Time{}, fmt.Errorf("unsupported container: %v", container)
}

// extractDateTimeOriginal reads the EXIF DateTimeOriginal field of a JPEG,
// TIFF, PNG, WebP or HEIF file, renders it the way it is displayed and parses
// that text.
func extractDateTimeOriginal(r io.ReadSeeker) (time.Time, error) {
	payload, err := exifPayload(r)
	if err != nil {
		return time.Time{}, fmt.Errorf("locating exif: %w", err)
	}

	x, err := exif.Decode(payload)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding exif: %w", err)
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, errNoCaptureTime
	}

	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading DateTimeOriginal: %w", err)
	}

	t, err := time.Parse(captureTimeLayout, exifDisplayValue(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing DateTimeOriginal: %w", err)
	}
	return t, nil
}

// exifDisplayValue converts "YYYY:MM:DD HH:MM:SS" into "YYYY-MM-DD HH:MM:SS".
// Values not shaped like an EXIF date/time are returned trimmed but otherwise untouched.
func exifDisplayValue(raw string) string {
	s := strings.TrimRight(raw, "\x00 ")
	if len(s) < 19 || s[4] != ':' || s[7] != ':' || s[10] != ' ' {
		return s
	}
	return s[:4] + "-" + s[5:7] + "-" + s[8:]
}

// extractVideoCreationTime reads the creation time from the movie header box
func extractVideoCreationTime(r io.ReadSeeker) (time.Time, error) {
	boxes, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return time.Time{}, fmt.Errorf("reading mvhd: %w", err)
	}
	if len(boxes) == 0 {
		return time.Time{}, errNoCaptureTime
	}

	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected mvhd payload %T", boxes[0].Payload)
	}

	var created uint64
	if mvhd.GetVersion() == 0 {
		created = uint64(mvhd.CreationTimeV0)
	} else {
		created = mvhd.CreationTimeV1
	}
	if created == 0 {
		return time.Time{}, errNoCaptureTime
	}

	return time.Unix(int64(created)-appleEpochOffset, 0).UTC(), nil
}
