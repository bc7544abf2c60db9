package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rtckit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const offer = "v=0\r\n" +
	"o=- 1 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n" +
	"a=sendrecv\r\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96 98\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=rtpmap:96 VP8/90000\r\n" +
	"a=rtpmap:98 VP9/90000\r\n" +
	"a=recvonly\r\n"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMungeCommand(t *testing.T) {
	out, err := run(t, offer, "munge", "--codec", "VP9")
	require.NoError(t, err)
	assert.Contains(t, out, "m=video 9 UDP/TLS/RTP/SAVPF 98 96")

	_, err = run(t, "not sdp", "munge", "--codec", "VP9")
	assert.Error(t, err)
}

func TestDirectionsCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offer.sdp")
	require.NoError(t, os.WriteFile(path, []byte(offer), 0o600))

	out, err := run(t, "", "directions", path)
	require.NoError(t, err)

	var directions map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &directions))
	assert.Equal(t, map[string][]string{"audio": {"sendrecv"}, "video": {"recvonly"}}, directions)

	_, err = run(t, "", "directions", filepath.Join(t.TempDir(), "missing.sdp"))
	assert.Error(t, err)
}

func TestSanitizeCommand(t *testing.T) {
	out, err := run(t, "  <i>hey</i><script>x()</script> ", "sanitize")
	require.NoError(t, err)
	assert.Equal(t, "<i>hey</i>\n", out)

	out, err = run(t, "<i>hey</i>", "sanitize", "--policy", "strict")
	require.NoError(t, err)
	assert.Equal(t, "hey\n", out)

	_, err = run(t, "x", "sanitize", "--policy", "loose")
	assert.Error(t, err)
}

func TestBuildServer(t *testing.T) {
	cfg := config.DefaultConfig()
	srv, cleanup, err := buildServer(cfg, prometheus.NewRegistry(), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, cfg.Server.Address, srv.Addr)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rtckit_chat_connections")
}
