// Package disk provides random-access, zero-padded reads over a raw
// volume image or block device.
package disk

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// SectorSize is the fixed NTFS sector size assumed throughout the
// reconstructor. It is never auto-detected from the media.
const SectorSize = 512

// Image is a random-access byte source. Reads past the end of the
// underlying file, or reads that otherwise fail, are zero-padded
// rather than surfaced as errors: the reconstructor is built to run
// against damaged and truncated media.
type Image struct {
	file *os.File
	size int64
}

// Open opens path (a regular file or a block device) for reading.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("determine image size: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind image: %w", err)
	}

	if stat, err := f.Stat(); err == nil && stat.Size() > 0 {
		size = stat.Size()
	}

	return &Image{file: f, size: size}, nil
}

// Close releases the underlying file handle.
func (im *Image) Close() error {
	return im.file.Close()
}

// Size returns the image's byte length as reported by stat, or by
// seeking to the end for devices that report zero.
func (im *Image) Size() int64 {
	return im.size
}

// Read returns exactly length bytes starting at the given absolute
// byte offset. Bytes beyond EOF, or bytes that could not be read
// because of an I/O error, are zeroed; a warning is logged with the
// offset and size, matching the error-handling policy of never
// failing a read outright.
func (im *Image) Read(offset int64, length int) []byte {
	buf := make([]byte, length)
	if length == 0 {
		return buf
	}

	n, err := im.file.ReadAt(buf, offset)
	if n < length {
		if err != nil && err != io.EOF {
			log.Warn().
				Int64("offset", offset).
				Int("length", length).
				Err(err).
				Msg("short read, filling with zeros")
		} else if n < length {
			log.Warn().
				Int64("offset", offset).
				Int("length", length).
				Int("read", n).
				Msg("read past end of image, filling with zeros")
		}
		for i := n; i < length; i++ {
			buf[i] = 0
		}
	}
	return buf
}

// ReadSectors reads count sectors of SectorSize bytes starting at the
// given 0-based sector index.
func (im *Image) ReadSectors(sector int64, count int) []byte {
	return im.Read(sector*SectorSize, count*SectorSize)
}

// TotalSectors returns the number of whole SectorSize-byte sectors in
// the image, used by callers that want to iterate every sector via
// feed.
func (im *Image) TotalSectors() int64 {
	return im.size / SectorSize
}
