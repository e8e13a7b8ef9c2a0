package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/edgeparse/internal/config"
	"github.com/danmuck/edgeparse/internal/engine"
	"github.com/danmuck/edgeparse/internal/testutil/testlog"
	"github.com/danmuck/edgeparse/internal/testutil/tlstest"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestConfigValidateTLS(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("plain config: %v", err)
	}
	cfg.TLS = TLSConfig{KeyFile: "server.key"}
	if err := cfg.Validate(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
	cfg.TLS = TLSConfig{CertFile: "server.crt"}
	if err := cfg.Validate(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}
	cfg.TLS = TLSConfig{CertFile: "server.crt", KeyFile: "server.key"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete tls config: %v", err)
	}
}

func TestServeListenerOverTLS(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	pair := tlstest.ServerPair(t, t.TempDir(), "127.0.0.1")

	cfg := DefaultConfig()
	cfg.TLS = TLSConfig{CertFile: pair.CertFile, KeyFile: pair.KeyFile}
	s := New(cfg, engine.New(config.DefaultLimits(), zerolog.Nop()), zerolog.Nop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pair.Pool}},
	}
	resp, err := client.Post("https://"+ln.Addr().String()+"/v1/form", "application/x-www-form-urlencoded", strings.NewReader("a=1"))
	if err != nil {
		cancel()
		t.Fatalf("post over tls: %v", err)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.TLS == nil {
		cancel()
		t.Fatalf("unexpected response: status=%d tls=%v body=%s", resp.StatusCode, resp.TLS != nil, payload)
	}
	if !strings.Contains(string(payload), `[["a","1"]]`) {
		cancel()
		t.Fatalf("unexpected body: %s", payload)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}
