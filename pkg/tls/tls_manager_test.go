package tls

import (
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestTLSDisabledByDefault(t *testing.T) {
	manager, err := NewTLSManager(ConfigFromSettings())
	if err != nil {
		t.Fatalf("Failed to create TLS manager: %v", err)
	}
	if manager.IsEnabled() {
		t.Error("TLS should be disabled by default")
	}
	if manager.GetTLSConfig() != nil {
		t.Error("TLS config should be nil when TLS is disabled")
	}
	if manager.NeedsHTTPServer() {
		t.Error("no HTTP listener needed without TLS")
	}
}

func TestTLSConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config TLSConfig
	}{
		{"missing domain", TLSConfig{EnableTLS: true, EnableLetsEncrypt: true, LetsEncryptEmail: "ops@test.dev"}},
		{"missing email", TLSConfig{EnableTLS: true, EnableLetsEncrypt: true, Domain: "test.dev"}},
		{"exclusive modes", TLSConfig{EnableTLS: true, EnableLetsEncrypt: true, SelfSigned: true, Domain: "test.dev", LetsEncryptEmail: "ops@test.dev"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTLSManager(tt.config); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMissingCertificateFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewTLSManager(TLSConfig{
		EnableTLS: true,
		CertFile:  filepath.Join(dir, "none.crt"),
		KeyFile:   filepath.Join(dir, "none.key"),
	})
	if err == nil {
		t.Error("expected error for missing certificate files")
	}
}

func TestSelfSignedCertificate(t *testing.T) {
	dir := t.TempDir()
	config := TLSConfig{
		EnableTLS:  true,
		SelfSigned: true,
		CertFile:   filepath.Join(dir, "certs", "server.crt"),
		KeyFile:    filepath.Join(dir, "certs", "server.key"),
	}
	manager, err := NewTLSManager(config)
	if err != nil {
		t.Fatalf("NewTLSManager: %v", err)
	}
	tlsConfig := manager.GetTLSConfig()
	if tlsConfig == nil || len(tlsConfig.Certificates) != 1 {
		t.Fatalf("tls config = %+v", tlsConfig)
	}
	leaf, err := x509.ParseCertificate(tlsConfig.Certificates[0].Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	if err := leaf.VerifyHostname("localhost"); err != nil {
		t.Errorf("certificate does not cover localhost: %v", err)
	}

	// A second start reuses the files.
	if _, err := NewTLSManager(config); err != nil {
		t.Errorf("reloading generated certificate: %v", err)
	}
}

func TestRedirectHandler(t *testing.T) {
	manager, err := NewTLSManager(TLSConfig{})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		httpsAddr string
		expected  string
	}{
		{":443", "https://example.org/ws?token=x"},
		{":8443", "https://example.org:8443/ws?token=x"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "http://example.org:8080/ws?token=x", nil)
		manager.GetHTTPHandler(tt.httpsAddr).ServeHTTP(w, r)
		if w.Code != http.StatusMovedPermanently {
			t.Errorf("status = %d", w.Code)
		}
		if got := w.Header().Get("Location"); got != tt.expected {
			t.Errorf("Location = %q, want %q", got, tt.expected)
		}
	}
}
