package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrEmptyAddress = errors.New("logstash: empty address")
	errCoolingDown  = errors.New("logstash: waiting before reconnect")
)

// LogstashWriter forwards newline-delimited log records to a Logstash TCP
// input. Records written while the endpoint is unreachable are dropped and
// counted; Write never returns a network error to the logger.
type LogstashWriter struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
	dial          func(network, addr string, timeout time.Duration) (net.Conn, error)

	mu        sync.Mutex
	conn      net.Conn
	retryAt   time.Time
	closed    bool
	dropped   atomic.Uint64
	delivered atomic.Uint64
}

type Option func(*LogstashWriter)

// WithDialTimeout defaults to 2s.
func WithDialTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.dialTimeout = d }
}

// WithWriteTimeout defaults to 1s.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.writeTimeout = d }
}

// WithRetryInterval sets how long the writer waits after a failed dial or
// write before it dials again. Defaults to 5s.
func WithRetryInterval(d time.Duration) Option {
	return func(w *LogstashWriter) { w.retryInterval = d }
}

func NewLogstashWriter(addr string, opts ...Option) (*LogstashWriter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrEmptyAddress
	}
	w := &LogstashWriter{
		addr:          addr,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		dial:          net.DialTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	record := frame(p)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if err := w.connectLocked(); err != nil {
		w.dropped.Add(1)
		return len(p), nil
	}
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	if _, err := w.conn.Write(record); err != nil {
		w.dropped.Add(1)
		_ = w.disconnectLocked()
		w.backoffLocked()
		return len(p), nil
	}
	w.delivered.Add(1)
	return len(p), nil
}

// Dropped is the number of records discarded because the endpoint was down.
func (w *LogstashWriter) Dropped() uint64 { return w.dropped.Load() }

func (w *LogstashWriter) Delivered() uint64 { return w.delivered.Load() }

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.disconnectLocked()
}

func (w *LogstashWriter) connectLocked() error {
	if w.conn != nil {
		return nil
	}
	if !w.retryAt.IsZero() && time.Now().Before(w.retryAt) {
		return errCoolingDown
	}
	conn, err := w.dial("tcp", w.addr, w.dialTimeout)
	if err != nil {
		w.backoffLocked()
		return err
	}
	w.conn = conn
	w.retryAt = time.Time{}
	return nil
}

func (w *LogstashWriter) disconnectLocked() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *LogstashWriter) backoffLocked() {
	if w.retryInterval <= 0 {
		w.retryAt = time.Time{}
		return
	}
	w.retryAt = time.Now().Add(w.retryInterval)
}

// frame copies p so the caller may reuse its buffer and terminates the record
// with a newline for the json_lines codec.
func frame(p []byte) []byte {
	out := make([]byte, len(p), len(p)+1)
	copy(out, p)
	if out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}
