package source

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	defaultDataBits = 8
	defaultTimeout  = 500 * time.Millisecond
)

// Serial reads raw interleaved int16 IQ pairs from a serial-attached
// front end, addressed by a colon-delimited path of the form
// "port[:baud[:databits[:parity]]]", the convention GNSS receiver
// front ends commonly use for NMEA/RTCM serial streams.
type Serial struct {
	port serial.Port
}

// NewSerial opens path and configures the port.
func NewSerial(path string) (*Serial, error) {
	port, baud, dataBits, parity := parseSerialPath(path)

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: dataBits,
		StopBits: serial.OneStopBit,
		Parity:   parity,
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("tracking/source: open serial port %s: %w", port, err)
	}
	if err := p.SetReadTimeout(defaultTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("tracking/source: set read timeout on %s: %w", port, err)
	}

	return &Serial{port: p}, nil
}

// parseSerialPath splits "port[:baud[:databits[:parity]]]" the way the
// teacher's OpenSerial does, defaulting any field left blank.
func parseSerialPath(path string) (port string, baud, dataBits int, parity serial.Parity) {
	baud, dataBits, parity = defaultBaudRate, defaultDataBits, serial.NoParity

	parts := strings.Split(path, ":")
	port = parts[0]

	if len(parts) > 1 && parts[1] != "" {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			baud = v
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if v, err := strconv.Atoi(parts[2]); err == nil {
			dataBits = v
		}
	}
	if len(parts) > 3 && parts[3] != "" {
		switch strings.ToUpper(parts[3]) {
		case "E":
			parity = serial.EvenParity
		case "O":
			parity = serial.OddParity
		default:
			parity = serial.NoParity
		}
	}

	return port, baud, dataBits, parity
}

// Read fills buf with samples decoded from the serial stream.
func (s *Serial) Read(buf []complex128) (int, error) {
	var iq [2]int16
	raw := make([]byte, 4)
	for i := range buf {
		if err := readFull(s.port, raw); err != nil {
			return i, err
		}
		iq[0] = int16(binary.LittleEndian.Uint16(raw[0:2]))
		iq[1] = int16(binary.LittleEndian.Uint16(raw[2:4]))
		buf[i] = complex(float64(iq[0])/32768, float64(iq[1])/32768)
	}
	return len(buf), nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("tracking/source: serial read timed out")
		}
	}
	return nil
}

// Close releases the serial port.
func (s *Serial) Close() error {
	return s.port.Close()
}
