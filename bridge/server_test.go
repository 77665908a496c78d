package bridge

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewshell/events"
	"viewshell/pdfexport"
)

var samplePDF = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

// asyncNative completes every export from a separate goroutine.
type asyncNative struct {
	data []byte
	err  error
}

func (n asyncNative) CreatePDF(_ pdfexport.Surface, _ pdfexport.PDFConfig, done *pdfexport.Completion) error {
	go done.Complete(n.data, n.err)
	return nil
}

// recordingNavigator records loads and answers with err.
type recordingNavigator struct {
	mu    sync.Mutex
	loads []string
	err   error
}

func (n *recordingNavigator) Navigate(s pdfexport.Surface, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loads = append(n.loads, s.String()+" "+url)
	return n.err
}

// socketPath returns a short socket path; sun_path is limited to about 100 bytes.
func socketPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "vsb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "b.sock")
}

func startServer(t *testing.T, router Router, relay *events.Relay) (*BridgeServer, string) {
	t.Helper()
	path := socketPath(t)
	srv, err := NewBridgeServer(path, router, relay)
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()
	t.Cleanup(func() {
		srv.Close()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("Serve did not return after Close")
		}
	})
	return srv, path
}

func dial(t *testing.T, path string) *Client {
	t.Helper()
	c, err := Dial(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func exportRouter(native pdfexport.Native) (*ExportRouter, *pdfexport.Registry) {
	registry := pdfexport.NewRegistry()
	return NewExportRouter(registry, pdfexport.New(native), nil), registry
}

func TestBridgeExportResult(t *testing.T) {
	router, _ := exportRouter(asyncNative{data: samplePDF})
	_, path := startServer(t, router, nil)
	c := dial(t, path)

	dest := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, c.ExportPDF("devtools:page-1", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, got)
}

func TestBridgeExportRegisteredSurface(t *testing.T) {
	router, registry := exportRouter(asyncNative{data: samplePDF})
	require.NoError(t, registry.Register("main", pdfexport.WebView{}))
	_, path := startServer(t, router, nil)
	c := dial(t, path)

	dest := filepath.Join(t.TempDir(), "main.pdf")
	require.NoError(t, c.ExportPDF("main", dest))
	assert.FileExists(t, dest)

	// The pin taken for the export has been released.
	unregistered := make(chan struct{})
	go func() {
		registry.Unregister("main")
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("surface still pinned after export")
	}
}

func TestBridgeExportErrors(t *testing.T) {
	tests := []struct {
		name    string
		native  pdfexport.Native
		target  string
		kind    pdfexport.Kind
		message string
	}{
		{
			name:    "unsupported",
			target:  "devtools:page-1",
			kind:    pdfexport.KindUnsupportedPlatform,
			message: "PDF export is not supported on this platform",
		},
		{
			name:    "unknown surface",
			native:  asyncNative{data: samplePDF},
			target:  "nowhere",
			kind:    pdfexport.KindNativeRegistrationFailed,
			message: `failed to start PDF generation: unknown surface "nowhere"`,
		},
		{
			name:    "empty payload",
			native:  asyncNative{},
			target:  "devtools:page-1",
			kind:    pdfexport.KindEmptyPayload,
			message: "PDF generation returned no data",
		},
		{
			name:    "native error",
			native:  asyncNative{err: &pdfexport.NativeError{Description: "web process crashed"}},
			target:  "devtools:page-1",
			kind:    pdfexport.KindNativeCallbackError,
			message: "PDF generation failed: web process crashed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := exportRouter(tt.native)
			_, path := startServer(t, router, nil)
			c := dial(t, path)

			dest := filepath.Join(t.TempDir(), "out.pdf")
			err := c.ExportPDF(tt.target, dest)

			require.Error(t, err)
			assert.Equal(t, tt.kind, pdfexport.KindOf(err))
			assert.Equal(t, tt.message, err.Error())
			assert.NoFileExists(t, dest)
		})
	}
}

func TestBridgeConcurrentExports(t *testing.T) {
	router, _ := exportRouter(asyncNative{data: samplePDF})
	_, path := startServer(t, router, nil)
	c := dial(t, path)
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.ExportPDF("devtools:page", filepath.Join(dir, string(rune('a'+i))+".pdf"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(errs))
}

func TestBridgeEventsAfterReady(t *testing.T) {
	relay := events.NewRelay(0)
	relay.Emit(events.Event{Name: events.OpenFile, Payload: "/docs/readme.md"})

	router, _ := exportRouter(nil)
	_, path := startServer(t, router, relay)
	c := dial(t, path)

	select {
	case ev := <-c.Events():
		t.Fatalf("event %+v arrived before Ready", ev)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, c.Ready())
	select {
	case ev := <-c.Events():
		assert.Equal(t, events.Event{Name: events.OpenFile, Payload: "/docs/readme.md"}, ev)
	case <-time.After(time.Second):
		t.Fatal("replayed event not received")
	}

	relay.Emit(events.Event{Name: events.OpenFolder, Payload: "/docs"})
	select {
	case ev := <-c.Events():
		assert.Equal(t, events.OpenFolder, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("live event not received")
	}
}

func TestBridgeUnknownRequestType(t *testing.T) {
	router, _ := exportRouter(nil)
	_, path := startServer(t, router, nil)

	dialer := websocket.Dialer{NetDial: func(_, _ string) (net.Conn, error) {
		return net.Dial("unix", path)
	}}
	ws, _, err := dialer.Dial("ws://viewshell/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(BridgeRequest{Type: "Reload", ID: "r1"}))
	var resp BridgeResponse
	require.NoError(t, ws.ReadJSON(&resp))
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, "unknown request type: Reload", resp.Message)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, ws.ReadJSON(&resp))
	assert.Equal(t, TypeError, resp.Type)
	assert.Contains(t, resp.Message, "parse error")
}

func TestBridgeCloseRemovesSocket(t *testing.T) {
	router, _ := exportRouter(nil)
	path := socketPath(t)
	srv, err := NewBridgeServer(path, router, nil)
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()

	c, err := Dial(path)
	require.NoError(t, err)
	defer c.Close()

	srv.Close()
	assert.NoFileExists(t, path)

	select {
	case _, ok := <-c.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client did not notice the server closing")
	}
	assert.ErrorIs(t, c.ExportPDF("devtools:x", filepath.Join(t.TempDir(), "x.pdf")), ErrClosed)
}

func TestNewBridgeServerReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	router, _ := exportRouter(nil)
	srv, err := NewBridgeServer(path, router, nil)
	require.NoError(t, err)
	srv.Close()
}

func TestBridgeLoad(t *testing.T) {
	registry := pdfexport.NewRegistry()
	require.NoError(t, registry.Register("main", pdfexport.WebView{}))
	nav := &recordingNavigator{}
	router := NewExportRouter(registry, pdfexport.New(nil), nav)
	_, path := startServer(t, router, nil)
	c := dial(t, path)

	require.NoError(t, c.Load("main", "file:///docs/readme.html"))

	nav.mu.Lock()
	defer nav.mu.Unlock()
	assert.Equal(t, []string{"webview(0x0) file:///docs/readme.html"}, nav.loads)
}

func TestBridgeLoadErrors(t *testing.T) {
	t.Run("navigation fails", func(t *testing.T) {
		registry := pdfexport.NewRegistry()
		require.NoError(t, registry.Register("main", pdfexport.WebView{}))
		router := NewExportRouter(registry, pdfexport.New(nil), &recordingNavigator{err: errors.New("The Internet connection appears to be offline.")})
		_, path := startServer(t, router, nil)

		err := dial(t, path).Load("main", "https://example.invalid/")
		require.Error(t, err)
		assert.Equal(t, "The Internet connection appears to be offline.", err.Error())
		assert.Equal(t, pdfexport.KindUnknown, pdfexport.KindOf(err))
	})

	t.Run("unknown surface", func(t *testing.T) {
		router := NewExportRouter(pdfexport.NewRegistry(), pdfexport.New(nil), &recordingNavigator{})
		_, path := startServer(t, router, nil)

		err := dial(t, path).Load("nowhere", "file:///x.html")
		assert.Equal(t, pdfexport.KindNativeRegistrationFailed, pdfexport.KindOf(err))
	})

	t.Run("no navigator", func(t *testing.T) {
		registry := pdfexport.NewRegistry()
		require.NoError(t, registry.Register("main", pdfexport.WebView{}))
		router := NewExportRouter(registry, pdfexport.New(nil), nil)
		_, path := startServer(t, router, nil)

		err := dial(t, path).Load("main", "file:///x.html")
		require.Error(t, err)
		assert.Equal(t, ErrNoNavigator.Error(), err.Error())
	})
}

func TestSocketPathDoesNotCreateDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	p := SocketPath()

	assert.Equal(t, "viewshell.sock", filepath.Base(p))
	assert.NoDirExists(t, filepath.Dir(p))
}
