package source

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// File reads a raw interleaved int16 IQ capture off disk (I, Q, I, Q,
// ...), scaling each sample to the unit-ish range used throughout this
// module's complex128 buffers.
type File struct {
	f *os.File
	r *bufio.Reader
}

// NewFile opens path for reading.
func NewFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracking/source: open %s: %w", path, err)
	}
	return &File{f: f, r: bufio.NewReaderSize(f, 1<<16)}, nil
}

// Read fills buf with samples decoded from the underlying file. It
// returns io.EOF (possibly along with a partial fill) once the file is
// exhausted mid-sample or fully consumed.
func (s *File) Read(buf []complex128) (int, error) {
	var iq [2]int16
	for i := range buf {
		if err := binary.Read(s.r, binary.LittleEndian, &iq); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return i, err
		}
		buf[i] = complex(float64(iq[0])/32768, float64(iq[1])/32768)
	}
	return len(buf), nil
}

// Close releases the underlying file handle.
func (s *File) Close() error {
	return s.f.Close()
}
