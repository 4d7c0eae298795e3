// Package tls decides how the terminal server terminates TLS: not at all,
// with certificate files, or with Let's Encrypt.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/agileandy/bbcbasic/pkg/configuration"
	"github.com/agileandy/bbcbasic/pkg/logger"
)

// TLSConfig holds the [TLS] settings.
type TLSConfig struct {
	EnableTLS          bool
	EnableLetsEncrypt  bool
	SelfSigned         bool
	Domain             string
	LetsEncryptEmail   string
	CertCacheDir       string
	ForceHTTPSRedirect bool
	CertFile           string
	KeyFile            string
	// HTTPAddress serves ACME challenges and redirects when TLS is on.
	HTTPAddress string
}

// ConfigFromSettings reads the [TLS] section.
func ConfigFromSettings() TLSConfig {
	return TLSConfig{
		EnableTLS:          configuration.GetBool("TLS", "enable_tls", false),
		EnableLetsEncrypt:  configuration.GetBool("TLS", "enable_letsencrypt", false),
		SelfSigned:         configuration.GetBool("TLS", "self_signed", false),
		Domain:             configuration.GetString("TLS", "domain", ""),
		LetsEncryptEmail:   configuration.GetString("TLS", "letsencrypt_email", ""),
		CertCacheDir:       configuration.GetString("TLS", "cert_cache_dir", "./certs"),
		ForceHTTPSRedirect: configuration.GetBool("TLS", "force_https_redirect", false),
		CertFile:           configuration.GetString("TLS", "cert_file", "./certs/server.crt"),
		KeyFile:            configuration.GetString("TLS", "key_file", "./certs/server.key"),
		HTTPAddress:        configuration.GetString("TLS", "http_address", ":80"),
	}
}

// TLSManager prepares certificates for the server.
type TLSManager struct {
	config      TLSConfig
	autocertMgr *autocert.Manager
	tlsConfig   *tls.Config
}

// NewTLSManager validates config and loads or obtains certificates.
func NewTLSManager(config TLSConfig) (*TLSManager, error) {
	tm := &TLSManager{config: config}
	if err := tm.validateConfig(); err != nil {
		return nil, fmt.Errorf("TLS configuration validation failed: %v", err)
	}
	if !config.EnableTLS {
		return tm, nil
	}

	var err error
	switch {
	case config.EnableLetsEncrypt:
		err = tm.initializeLetsEncrypt()
	case config.SelfSigned:
		err = tm.initializeSelfSigned()
	default:
		err = tm.initializeManualTLS()
	}
	if err != nil {
		return nil, fmt.Errorf("TLS initialization failed: %v", err)
	}
	return tm, nil
}

func (tm *TLSManager) validateConfig() error {
	if !tm.config.EnableTLS {
		return nil
	}
	if tm.config.EnableLetsEncrypt {
		if strings.TrimSpace(tm.config.Domain) == "" {
			return errors.New("domain is required when Let's Encrypt is enabled")
		}
		if strings.TrimSpace(tm.config.LetsEncryptEmail) == "" {
			return errors.New("letsencrypt_email is required when Let's Encrypt is enabled")
		}
		if tm.config.SelfSigned {
			return errors.New("self_signed and enable_letsencrypt are exclusive")
		}
	}
	return nil
}

func (tm *TLSManager) initializeLetsEncrypt() error {
	logger.ServerInfo("Initializing Let's Encrypt for domain: %s", tm.config.Domain)
	if err := os.MkdirAll(tm.config.CertCacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate cache directory: %v", err)
	}
	tm.autocertMgr = &autocert.Manager{
		Cache:      autocert.DirCache(tm.config.CertCacheDir),
		Prompt:     autocert.AcceptTOS,
		Email:      tm.config.LetsEncryptEmail,
		HostPolicy: autocert.HostWhitelist(tm.config.Domain, "www."+tm.config.Domain),
	}
	tm.tlsConfig = tm.autocertMgr.TLSConfig()
	tm.tlsConfig.MinVersion = tls.VersionTLS12
	return nil
}

func (tm *TLSManager) initializeManualTLS() error {
	logger.ServerInfo("Initializing TLS with cert: %s, key: %s", tm.config.CertFile, tm.config.KeyFile)
	cert, err := tls.LoadX509KeyPair(tm.config.CertFile, tm.config.KeyFile)
	if err != nil {
		return fmt.Errorf("loading certificate: %w", err)
	}
	tm.tlsConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return nil
}

// initializeSelfSigned creates a development certificate when the files
// are missing, then loads it like a manual one.
func (tm *TLSManager) initializeSelfSigned() error {
	if _, err := os.Stat(tm.config.CertFile); errors.Is(err, os.ErrNotExist) {
		if err := GenerateSelfSignedCert(tm.config.CertFile, tm.config.KeyFile, tm.config.Domain); err != nil {
			return err
		}
		logger.ServerWarn("Generated self-signed certificate %s; browsers will not trust it", tm.config.CertFile)
	}
	return tm.initializeManualTLS()
}

// IsEnabled reports whether the server should speak TLS.
func (tm *TLSManager) IsEnabled() bool { return tm.config.EnableTLS }

// GetTLSConfig returns the server TLS configuration, nil when disabled.
func (tm *TLSManager) GetTLSConfig() *tls.Config {
	if !tm.config.EnableTLS {
		return nil
	}
	return tm.tlsConfig
}

// NeedsHTTPServer reports whether a plain HTTP listener is needed for ACME
// challenges or redirects.
func (tm *TLSManager) NeedsHTTPServer() bool {
	return tm.config.EnableTLS && (tm.config.EnableLetsEncrypt || tm.config.ForceHTTPSRedirect)
}

// HTTPAddress is where the plain HTTP listener goes.
func (tm *TLSManager) HTTPAddress() string { return tm.config.HTTPAddress }

// GetHTTPHandler serves ACME challenges and redirects everything else to
// httpsAddr.
func (tm *TLSManager) GetHTTPHandler(httpsAddr string) http.Handler {
	redirect := tm.GetHTTPSRedirectHandler(httpsAddr)
	if tm.autocertMgr != nil {
		return tm.autocertMgr.HTTPHandler(redirect)
	}
	return redirect
}

// GetHTTPSRedirectHandler redirects to the same host on httpsAddr's port.
func (tm *TLSManager) GetHTTPSRedirectHandler(httpsAddr string) http.Handler {
	_, port, _ := net.SplitHostPort(httpsAddr)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := "https://" + host
		if port != "" && port != "443" {
			target += ":" + port
		}
		target += r.URL.RequestURI()
		logger.ServerDebug("Redirecting HTTP to HTTPS: %s -> %s", r.URL.String(), target)
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}

// GenerateSelfSignedCert writes a one-year ECDSA certificate for host
// (localhost when empty) and its key as PEM files.
func GenerateSelfSignedCert(certFile, keyFile, host string) error {
	if host == "" {
		host = "localhost"
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"BBC BASIC terminal"}, CommonName: host},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{host}
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}

	for _, path := range []string{certFile, keyFile} {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return err
		}
	}
	if err := writePEM(certFile, "CERTIFICATE", der, 0644); err != nil {
		return err
	}
	return writePEM(keyFile, "EC PRIVATE KEY", keyDER, 0600)
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
