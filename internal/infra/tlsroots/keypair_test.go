package tlsroots

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadKeyPair(t *testing.T) {
	certFile, keyFile := writeKeyPair(t, t.TempDir(), "first.local", time.Hour)

	kp, err := LoadKeyPair(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}

	cert, err := kp.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	if cert.Leaf == nil || cert.Leaf.Subject.CommonName != "first.local" {
		t.Errorf("leaf = %+v, want CN first.local", cert.Leaf)
	}
	if d := time.Until(kp.NotAfter()); d <= 0 || d > time.Hour {
		t.Errorf("NotAfter() = %v, want within the next hour", kp.NotAfter())
	}
	if c, k := kp.Files(); c != certFile || k != keyFile {
		t.Errorf("Files() = %q, %q", c, k)
	}
}

func TestLoadKeyPair_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadKeyPair(filepath.Join(dir, "none.crt"), filepath.Join(dir, "none.key"), nil); err == nil {
		t.Error("LoadKeyPair() should fail for missing files")
	}

	certFile, _ := writeKeyPair(t, dir, "x", time.Hour)
	if _, err := LoadKeyPair(certFile, certFile, nil); err == nil {
		t.Error("LoadKeyPair() should fail when the key file holds a certificate")
	}
}

func TestKeyPair_OnFileChange(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "before.local", time.Hour)

	kp, err := LoadKeyPair(certFile, keyFile, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Rotate the files, then notify about an unrelated path first.
	writeKeyPair(t, dir, "after.local", 2*time.Hour)
	kp.OnFileChange(filepath.Join(dir, "other.yaml"))
	if cert, _ := kp.GetCertificate(nil); cert.Leaf.Subject.CommonName != "before.local" {
		t.Errorf("unrelated change reloaded the pair: CN = %s", cert.Leaf.Subject.CommonName)
	}

	kp.OnFileChange(certFile)
	if cert, _ := kp.GetCertificate(nil); cert.Leaf.Subject.CommonName != "after.local" {
		t.Errorf("CN after reload = %s, want after.local", cert.Leaf.Subject.CommonName)
	}

	// A broken rewrite keeps the previous certificate.
	if err := os.WriteFile(certFile, []byte("broken"), 0644); err != nil {
		t.Fatal(err)
	}
	kp.OnFileChange(certFile)
	if cert, _ := kp.GetCertificate(nil); cert == nil || cert.Leaf.Subject.CommonName != "after.local" {
		t.Error("failed reload should keep the previous certificate")
	}
}
