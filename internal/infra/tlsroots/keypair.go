package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// KeyPair is a server certificate that can be swapped while the listener
// is serving.
type KeyPair struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time
}

// LoadKeyPair reads the certificate and key files.
func LoadKeyPair(certFile, keyFile string, logger *slog.Logger) (*KeyPair, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kp := &KeyPair{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := kp.Reload(); err != nil {
		return nil, err
	}
	return kp, nil
}

// Reload rereads the files. On error the previous certificate stays active.
func (k *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("tlsroots: parse leaf: %w", err)
	}
	cert.Leaf = leaf

	k.mu.Lock()
	k.cert = &cert
	k.notAfter = leaf.NotAfter
	k.mu.Unlock()

	k.logger.Info("certificate loaded",
		"cert_file", k.certFile,
		"subject", leaf.Subject.CommonName,
		"not_after", leaf.NotAfter)
	return nil
}

// OnFileChange reloads the pair when path is its certificate or key file.
// It matches the confloader.Watcher callback signature.
func (k *KeyPair) OnFileChange(path string) {
	path = filepath.Clean(path)
	if path != filepath.Clean(k.certFile) && path != filepath.Clean(k.keyFile) {
		return
	}
	if err := k.Reload(); err != nil {
		k.logger.Error("certificate reload failed", "error", err, "cert_file", k.certFile)
	}
}

// Files returns the certificate and key paths.
func (k *KeyPair) Files() (certFile, keyFile string) {
	return k.certFile, k.keyFile
}

// NotAfter returns the expiry of the active certificate.
func (k *KeyPair) NotAfter() time.Time {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.notAfter
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}
