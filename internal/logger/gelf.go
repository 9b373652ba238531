package logger

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// GELFWriter sends each written log line as a GELF 1.1 message over UDP.
// It implements io.Writer so it can sit behind io.MultiWriter next to stdout.
type GELFWriter struct {
	conn     net.Conn
	hostname string
	service  string
}

// NewGELFWriter dials addr (e.g. "127.0.0.1:12201") over UDP
func NewGELFWriter(addr, service string) (*GELFWriter, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}
	return &GELFWriter{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Delivery is fire-and-forget.
func (w *GELFWriter) Write(p []byte) (int, error) {
	payload, err := json.Marshal(gelfMessage(strings.TrimRight(string(p), "\n"), w.hostname, w.service, time.Now()))
	if err != nil {
		return len(p), nil
	}
	w.conn.Write(payload)
	return len(p), nil
}

// Close closes the UDP socket
func (w *GELFWriter) Close() error {
	return w.conn.Close()
}

// gelfMessage builds the GELF record for one slog text line
func gelfMessage(line, host, service string, now time.Time) map[string]interface{} {
	level := 6 // informational
	switch {
	case strings.Contains(line, "level=ERROR"):
		level = 3
	case strings.Contains(line, "level=WARN"):
		level = 4
	case strings.Contains(line, "level=DEBUG"):
		level = 7
	}

	short := line
	if i := strings.Index(line, "msg="); i >= 0 {
		short = line[i+len("msg="):]
	}

	return map[string]interface{}{
		"version":       "1.1",
		"host":          host,
		"short_message": short,
		"full_message":  line,
		"timestamp":     float64(now.UnixNano()) / 1e9,
		"level":         level,
		"_service":      service,
	}
}
