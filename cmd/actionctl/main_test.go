package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/actionwire/internal/actions"
	"github.com/danmuck/actionwire/internal/actions/demo"
	"github.com/danmuck/actionwire/internal/auth"
	"github.com/danmuck/actionwire/internal/dispatch"
	"github.com/danmuck/actionwire/internal/gateway"
	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/envelope"
	"github.com/danmuck/actionwire/internal/testutil/testlog"
	"github.com/danmuck/actionwire/internal/testutil/tlstest"
	"github.com/gin-gonic/gin"
)

func startGateway(t *testing.T, token string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := actions.NewRegistry()
	if err := demo.RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	cfg := gateway.Config{Name: "actionctl-test"}
	if token != "" {
		cfg.Validator = auth.StaticToken{Token: token}
	}
	gw, err := gateway.New(dispatch.New(reg.Seal()), cfg)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCallPrintsResultJSON(t *testing.T) {
	testlog.Start(t)
	endpoint := startGateway(t, "")
	out, err := run(t, "--endpoint", endpoint, "call", demo.EchoID, `{"msg":"hi"}`)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if strings.TrimSpace(out) != `{"msg":"hi"}` {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCallSurfacesRemoteError(t *testing.T) {
	testlog.Start(t)
	endpoint := startGateway(t, "")
	_, err := run(t, "--endpoint", endpoint, "call", "missing.action")
	var remote *envelope.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if remote.Kind != protocol.KindUnknownAction {
		t.Fatalf("unexpected kind: %s", remote.Kind)
	}
}

func TestCallRejectsBadJSONArgs(t *testing.T) {
	testlog.Start(t)
	if _, err := run(t, "--endpoint", "http://127.0.0.1:1", "call", demo.EchoID, `{"msg":`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestListUsesToken(t *testing.T) {
	testlog.Start(t)
	endpoint := startGateway(t, "sekret")
	if _, err := run(t, "--endpoint", endpoint, "list"); err == nil {
		t.Fatalf("expected unauthorized list to fail")
	}
	out, err := run(t, "--endpoint", endpoint, "--token", "sekret", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, demo.MathAddID) {
		t.Fatalf("missing %s in listing:\n%s", demo.MathAddID, out)
	}
}

func TestListOverTLSWithConfiguredCA(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	ca := tlstest.NewAuthority(t, dir, "actionctl-test-ca")
	certFile, keyFile := ca.IssueLocalhost(t, dir)

	reg := actions.NewRegistry()
	if err := demo.RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	gw, err := gateway.New(dispatch.New(reg.Seal()), gateway.Config{})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	srv := httptest.NewUnstartedServer(gw.Handler())
	srv.TLS = tlstest.ServerConfig(t, certFile, keyFile)
	srv.StartTLS()
	defer srv.Close()

	path := filepath.Join(dir, "actionctl.toml")
	body := fmt.Sprintf("endpoint = %q\nca_file = %q\n", srv.URL, ca.CAFile())
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, err := run(t, "--config", path, "list")
	if err != nil {
		t.Fatalf("list over tls: %v", err)
	}
	if !strings.Contains(out, demo.EchoID) {
		t.Fatalf("missing %s in listing:\n%s", demo.EchoID, out)
	}

	if _, err := run(t, "--endpoint", srv.URL, "list"); err == nil {
		t.Fatalf("expected untrusted certificate to fail without ca_file")
	}
}
