// Package exifdate derives a display date for an image from its capture-time
// metadata.
package exifdate

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
)

const (
	exifLayout    = "2006:01:02 15:04:05"
	DisplayLayout = "2006-01-02"
)

// ErrNoDate is returned by CaptureTime when the image has no usable date tag.
var ErrNoDate = errors.New("no capture date")

// Source records which fallback produced a date.
type Source string

const (
	SourceExif    Source = "exif"
	SourceModTime Source = "mtime"
	SourceNow     Source = "now"
)

// dateTags in order of precedence.
var dateTags = []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"}

var now = time.Now

// DisplayDate returns the capture date of the image at path as YYYY-MM-DD.
// It falls back to the file's modification time and then to today, so it
// always returns a date.
func DisplayDate(path string) string {
	date, _ := Resolve(path)
	return date
}

// Resolve is DisplayDate that also reports where the date came from.
func Resolve(path string) (string, Source) {
	f, err := os.Open(path)
	if err != nil {
		return now().Format(DisplayLayout), SourceNow
	}
	defer f.Close()

	if t, err := CaptureTime(f); err == nil {
		return t.Format(DisplayLayout), SourceExif
	}
	if info, err := f.Stat(); err == nil {
		return info.ModTime().Format(DisplayLayout), SourceModTime
	}
	return now().Format(DisplayLayout), SourceNow
}

// CaptureTime reads the EXIF date from rs. The first tag present decides;
// an unparsable value is not retried against the later tags.
func CaptureTime(rs io.ReadSeeker) (time.Time, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return time.Time{}, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return time.Time{}, ErrNoDate
		}
		return time.Time{}, err
	}

	values := make(map[string]string, len(dateTags))
	for _, tag := range tags {
		for _, name := range dateTags {
			if tag.TagName != name {
				continue
			}
			if _, seen := values[name]; !seen {
				values[name] = tagString(tag)
			}
		}
	}

	for _, name := range dateTags {
		raw, ok := values[name]
		if !ok {
			continue
		}
		t, err := time.Parse(exifLayout, raw)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
	return time.Time{}, ErrNoDate
}

func tagString(tag exif.ExifTag) string {
	if s, ok := tag.Value.(string); ok {
		return strings.TrimRight(strings.TrimSpace(s), "\x00")
	}
	return strings.TrimRight(strings.TrimSpace(tag.FormattedFirst), "\x00")
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
