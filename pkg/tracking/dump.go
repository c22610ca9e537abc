package tracking

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DumpRecord is one binary dump entry. Unlike Measurement, it carries
// the raw correlator and discriminator values used for offline
// debugging/plotting.
type DumpRecord struct {
	EarlyAbs, PromptAbs, LateAbs float32
	PromptI, PromptQ             float32
	SampleCounter                uint64
	AccCarrierPhaseRad           float32
	CarrierDopplerHz             float32
	CodeFreqChips                float32
	CarrErrRaw, CarrErrFilt      float32
	CodeErrRaw, CodeErrFilt      float32
	CN0DbHz                      float32
	CarrierLockTest              float32
	RemCodePhaseSamples          float32
	SampleCounterPlusBlock       float64
}

// DumpRecordSize is the exact little-endian encoded size in bytes of a
// DumpRecord: 15 float32 fields (4 bytes each), one uint64 (8 bytes)
// and one float64 (8 bytes).
const DumpRecordSize = 15*4 + 8 + 8

// Dumper writes per-epoch DumpRecords to "<dumpFilename>_<channelID>.dat"
// in truncate-binary mode. Dump I/O errors are logged and suppressed
// rather than propagated: a failing dump file must never stop tracking.
type Dumper struct {
	f      *os.File
	w      *bufio.Writer
	logger logrus.FieldLogger
}

// NewDumper opens (truncating) the dump file for channelID.
func NewDumper(dumpFilename string, channelID uint32, logger logrus.FieldLogger) (*Dumper, error) {
	path := fmt.Sprintf("%s_%d.dat", dumpFilename, channelID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDumpIO, path, err)
	}
	return &Dumper{f: f, w: bufio.NewWriter(f), logger: logger}, nil
}

// Write appends rec to the dump file. Errors are logged and swallowed:
// the caller does not need to check the return value, but it is
// returned anyway for tests.
func (d *Dumper) Write(rec DumpRecord) error {
	fields := []interface{}{
		rec.EarlyAbs, rec.PromptAbs, rec.LateAbs,
		rec.PromptI, rec.PromptQ,
		rec.SampleCounter,
		rec.AccCarrierPhaseRad,
		rec.CarrierDopplerHz, rec.CodeFreqChips,
		rec.CarrErrRaw, rec.CarrErrFilt,
		rec.CodeErrRaw, rec.CodeErrFilt,
		rec.CN0DbHz, rec.CarrierLockTest,
		rec.RemCodePhaseSamples,
		rec.SampleCounterPlusBlock,
	}
	for _, v := range fields {
		if err := binary.Write(d.w, binary.LittleEndian, v); err != nil {
			if d.logger != nil {
				d.logger.WithError(err).Warn("dump write failed")
			}
			return fmt.Errorf("%w: %v", ErrDumpIO, err)
		}
	}
	return nil
}

// Close flushes and closes the dump file.
func (d *Dumper) Close() error {
	if err := d.w.Flush(); err != nil {
		if d.logger != nil {
			d.logger.WithError(err).Warn("dump flush failed")
		}
		return fmt.Errorf("%w: %v", ErrDumpIO, err)
	}
	return d.f.Close()
}

// DecodeDumpRecord reads exactly one DumpRecord from r, the inverse of
// Write, so tests can verify round-tripping without an external
// plotting tool.
func DecodeDumpRecord(r io.Reader) (DumpRecord, error) {
	var rec DumpRecord
	fields := []interface{}{
		&rec.EarlyAbs, &rec.PromptAbs, &rec.LateAbs,
		&rec.PromptI, &rec.PromptQ,
		&rec.SampleCounter,
		&rec.AccCarrierPhaseRad,
		&rec.CarrierDopplerHz, &rec.CodeFreqChips,
		&rec.CarrErrRaw, &rec.CarrErrFilt,
		&rec.CodeErrRaw, &rec.CodeErrFilt,
		&rec.CN0DbHz, &rec.CarrierLockTest,
		&rec.RemCodePhaseSamples,
		&rec.SampleCounterPlusBlock,
	}
	for _, v := range fields {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return rec, err
		}
	}
	return rec, nil
}
