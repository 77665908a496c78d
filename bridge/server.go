package bridge

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"viewshell/events"
	"viewshell/pdfexport"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	// The socket is local and owned by the current user.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// BridgeServer serves the command bridge on a Unix socket. Each connection
// speaks JSON messages over a WebSocket at /ws.
type BridgeServer struct {
	router   Router
	relay    *events.Relay
	listener net.Listener
	httpSrv  *http.Server
	sockPath string

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewBridgeServer creates a BridgeServer bound to sockPath. relay may be nil
// when the host has no events to forward.
func NewBridgeServer(sockPath string, router Router, relay *events.Relay) (*BridgeServer, error) {
	// Remove stale socket file.
	_ = os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	s := &BridgeServer{
		router:   router,
		relay:    relay,
		listener: listener,
		sockPath: sockPath,
		conns:    make(map[*websocket.Conn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Serve accepts connections and handles them. Blocks until Close is called,
// in which case it returns nil.
func (s *BridgeServer) Serve() error {
	err := s.httpSrv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts down the server: stops the listener, closes open connections,
// waits for their handlers and removes the socket. Exports already running
// finish in the background; their replies are dropped.
func (s *BridgeServer) Close() {
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	_ = s.httpSrv.Close()
	s.wg.Wait()
	_ = os.Remove(s.sockPath)
}

func (s *BridgeServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("bridge: websocket upgrade failed")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ws.Close()
		return
	}
	s.conns[ws] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, ws)
		s.mu.Unlock()
		s.wg.Done()
	}()

	c := &conn{server: s, ws: ws}
	c.serve()
}

// conn is one bridge client. Writes come from the read loop, from export
// goroutines and from the event forwarder, so they are serialized.
type conn struct {
	server  *BridgeServer
	ws      *websocket.Conn
	writeMu sync.Mutex

	sub       *events.Subscription
	forwarder sync.WaitGroup
}

func (c *conn) serve() {
	defer func() {
		_ = c.ws.Close()
		if c.sub != nil {
			c.sub.Close()
		}
		c.forwarder.Wait()
	}()

	logrus.Debug("bridge: client connected")
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Debug("bridge: read failed")
			}
			return
		}

		var req BridgeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.write(BridgeResponse{Type: TypeError, Message: "parse error: " + err.Error()})
			continue
		}
		c.handleRequest(req)
	}
}

func (c *conn) handleRequest(req BridgeRequest) {
	switch req.Type {
	case TypeExportPDF:
		go c.export(req)

	case TypeLoad:
		go c.load(req)

	case TypeReady:
		c.ready()

	default:
		logrus.Warnf("bridge: unknown request type: %s", req.Type)
		c.write(BridgeResponse{
			Type:    TypeError,
			ID:      req.ID,
			Message: "unknown request type: " + req.Type,
		})
	}
}

func (c *conn) export(req BridgeRequest) {
	log := logrus.WithFields(logrus.Fields{"id": req.ID, "target": req.Target})
	log.Debug("bridge: export requested")

	if err := c.server.router.ExportPDF(req.Target, req.Path); err != nil {
		c.write(BridgeResponse{
			Type:    TypeError,
			ID:      req.ID,
			Kind:    pdfexport.KindOf(err).String(),
			Message: err.Error(),
		})
		return
	}
	c.write(BridgeResponse{Type: TypeResult, ID: req.ID})
}

func (c *conn) load(req BridgeRequest) {
	logrus.WithFields(logrus.Fields{"id": req.ID, "target": req.Target, "url": req.URL}).Debug("bridge: load requested")

	if err := c.server.router.Load(req.Target, req.URL); err != nil {
		c.write(BridgeResponse{
			Type:    TypeError,
			ID:      req.ID,
			Kind:    pdfexport.KindOf(err).String(),
			Message: err.Error(),
		})
		return
	}
	c.write(BridgeResponse{Type: TypeResult, ID: req.ID})
}

// ready subscribes the connection to the relay and starts forwarding.
// Repeated Ready messages are ignored.
func (c *conn) ready() {
	if c.sub != nil || c.server.relay == nil {
		return
	}
	c.sub = c.server.relay.Subscribe()

	c.forwarder.Add(1)
	go func(sub *events.Subscription) {
		defer c.forwarder.Done()
		for ev := range sub.C() {
			c.write(BridgeResponse{Type: TypeEvent, Event: &ev})
		}
	}(c.sub)

	c.sub.Ready()
}

func (c *conn) write(resp BridgeResponse) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(resp); err != nil {
		logrus.WithError(err).WithField("type", resp.Type).Debug("bridge: write failed")
	}
}
