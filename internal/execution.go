package internal

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// Envs converts a list of KEY=VALUE pairs (e.g. os.Environ()) into a map,
// if ENV_FILE is set, the file is read first and the pairs override it
func Envs(environ []string) (map[string]string, error) {
	envs := make(map[string]string)
	for _, env := range environ {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	envFile := envs["ENV_FILE"]
	if envFile == "" {
		return envs, nil
	}
	fileEnvs, err := godotenv.Read(envFile)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read env file %s", envFile)
	}
	for key, value := range envs {
		fileEnvs[key] = value
	}
	return fileEnvs, nil
}

// LaunchContext returns a context that's cancelled once a signal is
// received or the returned cancel function is called
func LaunchContext(wg *sync.WaitGroup, osSignal chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		close(started)
		select {
		case <-ctx.Done():
		case <-osSignal:
		}
	}()
	<-started
	return ctx, cancel
}

func GetCertificates(certFile, keyFile string) ([]tls.Certificate, error) {
	if certFile == "" || keyFile == "" {
		return []tls.Certificate{}, nil
	}
	bytesCert, err := os.ReadFile(certFile)
	if err != nil {
		return nil, err
	}
	bytesKey, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	certificate, err := tls.X509KeyPair(bytesCert, bytesKey)
	if err != nil {
		return nil, err
	}
	return []tls.Certificate{certificate}, nil
}

func GetCaCert(caCertFile string) (*x509.CertPool, error) {
	caCertPool := x509.NewCertPool()
	if caCertFile == "" {
		return caCertPool, nil
	}
	bytes, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, err
	}
	caCertPool.AppendCertsFromPEM(bytes)
	return caCertPool, nil
}

// GetTlsConfig returns nil when neither a certificate nor a ca is configured,
// a ca on its own is enough for a client to trust a private server
func GetTlsConfig(certFile, keyFile, caCertFile string) (*tls.Config, error) {
	if (certFile == "" || keyFile == "") && caCertFile == "" {
		return nil, nil
	}
	caCertPool, err := GetCaCert(caCertFile)
	if err != nil {
		return nil, err
	}
	certificates, err := GetCertificates(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	tlsConfig := &tls.Config{
		// TLS versions below 1.2 are considered insecure
		// see https://www.rfc-editor.org/rfc/rfc7525.txt for details
		MinVersion:   tls.VersionTLS12,
		Certificates: certificates,
	}
	if caCertFile != "" {
		tlsConfig.RootCAs, tlsConfig.ClientCAs = caCertPool, caCertPool
	}
	return tlsConfig, nil
}
