package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aretw0/kiln/pkg/core"
)

type stubComponent struct{}

func (stubComponent) State() any            { return map[string]int{"n": 1} }
func (stubComponent) ComponentType() string { return "stub" }

func newTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>\n  <body>\n    <div></div>\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.css"), []byte(".a{}"), 0644))

	s := New(Config{Root: root}, nil, stubComponent{})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, root
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Files(t *testing.T) {
	_, ts, _ := newTestServer(t)

	t.Run("index is injected", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.True(t, strings.HasSuffix(body, ScriptTag))
	})

	t.Run("html by name", func(t *testing.T) {
		_, body := get(t, ts.URL+"/index.html")
		assert.Contains(t, body, ScriptTag)
	})

	t.Run("other files untouched", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/index.css")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, ".a{}", body)
	})

	t.Run("missing page", func(t *testing.T) {
		resp, _ := get(t, ts.URL+"/nope.html")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("traversal stays in root", func(t *testing.T) {
		resp, _ := get(t, ts.URL+"/../../etc/passwd.html")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_Script(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+ScriptPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Contains(t, body, WebSocketPath)
}

func TestServer_State(t *testing.T) {
	_, ts, root := newTestServer(t)
	get(t, ts.URL+"/")

	_, body := get(t, ts.URL+StatePath)
	var state map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	require.Contains(t, state, "devserver")
	require.Contains(t, state, "stub")

	var srv ServerState
	require.NoError(t, json.Unmarshal(state["devserver"], &srv))
	assert.Equal(t, root, srv.Root)
	assert.Equal(t, 1, srv.Pages)
}

func TestServer_Reload(t *testing.T) {
	s, ts, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, ts.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, s.Hub(), 1)

	s.Hub().Reload(ctx, "styles", "src/index.sass")

	var msg Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, Message{Type: MessageReload, Task: "styles", Path: "src/index.sass"}, msg)
	assert.Equal(t, 1, s.State().(ServerState).Reloads)
}

func TestHub_Notify(t *testing.T) {
	s, ts, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, ts.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, s.Hub(), 1)

	hub := s.Hub()
	hub.Notify(ctx, core.Notification{Level: core.LevelInfo, Title: "ignored"})
	hub.Notify(ctx, core.Notification{
		Level:   core.LevelError,
		Task:    "templates",
		Title:   "An error occurred while compiling templates.",
		Message: "boom",
	})

	var msg Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "templates", msg.Task)
	assert.Equal(t, "boom", msg.Message)
}

func TestHub_ClientDisconnect(t *testing.T) {
	s, ts, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, ts.URL)
	waitForClients(t, s.Hub(), 1)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	waitForClients(t, s.Hub(), 0)
}

func TestServer_Serve(t *testing.T) {
	s, _, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return s.State().(ServerState).Running }, 2*time.Second, 10*time.Millisecond)
	resp, body := get(t, "http://"+s.Addr()+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ScriptTag)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.State().(ServerState).Running)
}

func dial(ctx context.Context, t *testing.T, base string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(base, "http", "ws", 1) + WebSocketPath
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}
