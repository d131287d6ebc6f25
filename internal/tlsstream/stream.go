// Package tlsstream implements the SecureStream abstraction the core
// consumes: TLS 1.2 accept/connect/read/write, backed by the standard
// library's crypto/tls. Certificate and key loading is layered over a
// CertWatcher (certwatch.go) so a rotated cert/key pair on disk takes
// effect without a server restart.
package tlsstream

import (
	"crypto/tls"
	"fmt"
	"net"
)

// Stream is a single accepted or dialed TLS connection. It exposes the
// subset of *tls.Conn the core needs (Read, Write, Close) under a name
// that matches the spec's SecureStream vocabulary.
type Stream struct {
	conn *tls.Conn
}

// Read implements io.Reader.
func (s *Stream) Read(buf []byte) (int, error) { return s.conn.Read(buf) }

// Write implements io.Writer.
func (s *Stream) Write(buf []byte) (int, error) { return s.conn.Write(buf) }

// Close closes the underlying connection.
func (s *Stream) Close() error { return s.conn.Close() }

// Listener accepts TLS connections over a bound TCP listener.
type Listener struct {
	ln  net.Listener
	cfg *tls.Config
}

// NewListener binds addr and wraps it for TLS 1.2 using the certificates
// served by watcher.
func NewListener(addr string, watcher *CertWatcher) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tlsstream: listen %s: %w", addr, err)
	}

	cfg := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		MaxVersion:     tls.VersionTLS12,
		GetCertificate: watcher.GetCertificate,
	}

	return &Listener{ln: ln, cfg: cfg}, nil
}

// Accept blocks for the next client connection and completes its TLS
// handshake before returning. The spec's accept-loop-with-runnable-flag
// pattern lives in the dispatcher package, which calls Accept inside a
// loop that checks the shutdown coordinator between calls.
func (l *Listener) Accept() (*Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	tlsConn := tls.Server(conn, l.cfg)
	if err := tlsConn.Handshake(); err != nil {
		tlsConn.Close()
		return nil, fmt.Errorf("tlsstream: handshake: %w", err)
	}
	return &Stream{conn: tlsConn}, nil
}

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Dial connects to addr and completes a TLS 1.2 handshake. insecureSkipVerify
// exists only for the client talking to a self-signed deployment
// certificate; production deployments should set it false and supply a
// proper CA pool via serverName/verification out of band.
func Dial(addr string, insecureSkipVerify bool) (*Stream, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify,
	}
	conn, err := tls.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("tlsstream: dial %s: %w", addr, err)
	}
	return &Stream{conn: conn}, nil
}
