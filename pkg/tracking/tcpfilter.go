package tracking

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// TCPFilter is a LoopFilter that delegates filtering to an external
// process over a TCP socket: a socket-based substitute for the local
// DLL/PLL filters, exposing {connect, send(err), recv(corr)} semantics
// with a reconnect policy on I/O error.
//
// The wire format is one newline-terminated decimal float per message,
// in each direction; this keeps the protocol legible for a reference
// filter process without pulling in a serialization dependency the
// rest of the pack does not already use for this kind of thing.
type TCPFilter struct {
	addr   string
	logger logrus.FieldLogger

	conn   net.Conn
	reader *bufio.Reader

	reconnectBackoff time.Duration
	maxReconnects    int
}

// NewTCPFilter builds a filter backend that connects to addr on first
// use. It does not dial eagerly — Initialize performs the first
// connect attempt, matching the other LoopFilter implementations'
// contract that Initialize readies the filter for use.
func NewTCPFilter(addr string, logger logrus.FieldLogger) *TCPFilter {
	return &TCPFilter{
		addr:             addr,
		logger:           logger,
		reconnectBackoff: 200 * time.Millisecond,
		maxReconnects:    3,
	}
}

// Initialize (re)establishes the socket connection, closing any
// previous one first.
func (f *TCPFilter) Initialize() {
	f.closeConn()
	if err := f.dial(context.Background()); err != nil {
		f.warn(err, "tcp filter: initial connect failed, will retry on next update")
	}
}

// warn logs through f.logger if one was supplied; Channel may construct
// a TCPFilter with a nil logger the same way it does for the other
// LoopFilter backends.
func (f *TCPFilter) warn(err error, msg string) {
	if f.logger == nil {
		return
	}
	if err != nil {
		f.logger.WithError(err).Warn(msg)
		return
	}
	f.logger.Warn(msg)
}

func (f *TCPFilter) dial(ctx context.Context) error {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", f.addr)
	if err != nil {
		return fmt.Errorf("tcp filter: dial %s: %w", f.addr, err)
	}
	f.conn = conn
	f.reader = bufio.NewReader(conn)
	return nil
}

func (f *TCPFilter) closeConn() {
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
		f.reader = nil
	}
}

// Update sends errSample to the remote filter and blocks for its
// correction. On I/O error it retries the connection up to
// maxReconnects times with a fixed backoff before giving up and
// returning 0 (a NumericalGuardTripped-style fallback, not a panic).
func (f *TCPFilter) Update(errSample float64) float64 {
	for attempt := 0; attempt <= f.maxReconnects; attempt++ {
		if f.conn == nil {
			if err := f.dial(context.Background()); err != nil {
				f.warn(err, "tcp filter: reconnect failed")
				time.Sleep(f.reconnectBackoff)
				continue
			}
		}

		if _, err := fmt.Fprintf(f.conn, "%.17g\n", errSample); err != nil {
			f.warn(err, "tcp filter: send failed, reconnecting")
			f.closeConn()
			continue
		}

		line, err := f.reader.ReadString('\n')
		if err != nil {
			f.warn(err, "tcp filter: recv failed, reconnecting")
			f.closeConn()
			continue
		}

		var corr float64
		if _, err := fmt.Sscanf(line, "%g", &corr); err != nil {
			f.warn(err, "tcp filter: malformed correction, treating as zero")
			return 0
		}
		return corr
	}

	f.warn(nil, "tcp filter: exhausted reconnect attempts, returning zero correction")
	return 0
}

// Close releases the socket.
func (f *TCPFilter) Close() error {
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	f.reader = nil
	return err
}
