package tlsstream

import (
	"crypto/tls"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// CertWatcher loads an X.509 certificate/key pair and reloads it
// whenever either file is rewritten on disk, adapted from the teacher's
// fsnotify-based file watcher. GetCertificate is wired directly into
// tls.Config so certificate rotation takes effect for the next accepted
// connection without a server restart.
type CertWatcher struct {
	certFile, keyFile string

	cert atomic.Pointer[tls.Certificate]

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewCertWatcher loads certFile/keyFile once and starts watching both
// for writes. Call Close to stop watching.
func NewCertWatcher(certFile, keyFile string) (*CertWatcher, error) {
	w := &CertWatcher{
		certFile: certFile,
		keyFile:  keyFile,
		done:     make(chan struct{}),
	}

	if err := w.reload(); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tlsstream: create watcher: %w", err)
	}
	w.fsWatcher = fsWatcher

	if err := fsWatcher.Add(certFile); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("tlsstream: watch %s: %w", certFile, err)
	}
	if err := fsWatcher.Add(keyFile); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("tlsstream: watch %s: %w", keyFile, err)
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

func (w *CertWatcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("tlsstream: load key pair: %w", err)
	}
	w.cert.Store(&cert)
	return nil
}

func (w *CertWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Best-effort: a reload failure (e.g. a half-written file)
			// leaves the previous certificate in place.
			_ = w.reload()
		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// GetCertificate satisfies tls.Config.GetCertificate.
func (w *CertWatcher) GetCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return w.cert.Load(), nil
}

// Close stops watching for certificate changes.
func (w *CertWatcher) Close() error {
	close(w.done)
	w.wg.Wait()
	return w.fsWatcher.Close()
}
