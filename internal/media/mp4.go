package media

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrNoMovieHeader is returned when an MP4/MOV file has no moov/mvhd box.
var ErrNoMovieHeader = errors.New("mp4: movie header not found")

// MP4Duration reads the presentation duration from the mvhd box of an
// ISO-BMFF (mp4, mov, m4v) stream.
func MP4Duration(r io.ReadSeeker) (time.Duration, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	moovStart, moovEnd, err := findBox(r, 0, end, "moov")
	if err != nil {
		return 0, err
	}
	mvhdStart, mvhdEnd, err := findBox(r, moovStart, moovEnd, "mvhd")
	if err != nil {
		return 0, err
	}
	return readMovieHeader(r, mvhdStart, mvhdEnd)
}

// findBox scans sibling boxes in [start, end) and returns the payload range of
// the first one named name.
func findBox(r io.ReadSeeker, start, end int64, name string) (int64, int64, error) {
	offset := start
	var header [8]byte
	for offset+8 <= end {
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return 0, 0, err
		}
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return 0, 0, fmt.Errorf("mp4: read box header: %w", err)
		}
		size := int64(binary.BigEndian.Uint32(header[:4]))
		kind := string(header[4:8])
		headerLen := int64(8)
		switch size {
		case 0:
			size = end - offset
		case 1:
			var large [8]byte
			if _, err := io.ReadFull(r, large[:]); err != nil {
				return 0, 0, fmt.Errorf("mp4: read large size: %w", err)
			}
			size = int64(binary.BigEndian.Uint64(large[:]))
			headerLen = 16
		}
		if size < headerLen || offset+size > end {
			return 0, 0, fmt.Errorf("mp4: box %q has invalid size %d", kind, size)
		}
		if kind == name {
			return offset + headerLen, offset + size, nil
		}
		offset += size
	}
	return 0, 0, ErrNoMovieHeader
}

func readMovieHeader(r io.ReadSeeker, start, end int64) (time.Duration, error) {
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	payload := make([]byte, end-start)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, fmt.Errorf("mp4: read mvhd: %w", err)
	}
	if len(payload) < 4 {
		return 0, ErrNoMovieHeader
	}
	var timescale, units uint64
	switch payload[0] {
	case 0:
		if len(payload) < 20 {
			return 0, ErrNoMovieHeader
		}
		timescale = uint64(binary.BigEndian.Uint32(payload[12:16]))
		units = uint64(binary.BigEndian.Uint32(payload[16:20]))
	case 1:
		if len(payload) < 32 {
			return 0, ErrNoMovieHeader
		}
		timescale = uint64(binary.BigEndian.Uint32(payload[20:24]))
		units = binary.BigEndian.Uint64(payload[24:32])
	default:
		return 0, fmt.Errorf("mp4: unsupported mvhd version %d", payload[0])
	}
	if timescale == 0 {
		return 0, errors.New("mp4: zero timescale")
	}
	seconds := float64(units) / float64(timescale)
	return time.Duration(seconds * float64(time.Second)), nil
}

// FileProber probes files whose Handle is a filesystem path.
type FileProber struct{}

// Duration implements Prober.
func (FileProber) Duration(ctx context.Context, file File) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path, ok := file.Handle.(string)
	if !ok || path == "" {
		return 0, errors.New("file has no path")
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return MP4Duration(f)
}
