package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"viewshell/events"
	"viewshell/pdfexport"
)

// ErrClosed is returned for requests on a client whose connection is gone.
var ErrClosed = errors.New("bridge connection closed")

// Client is a command bridge connection, as used by the UI glue.
type Client struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan BridgeResponse
	closed  bool

	events chan events.Event
	done   chan struct{}
}

// Dial connects to the bridge socket at sockPath.
func Dial(sockPath string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", sockPath)
		},
	}

	ws, _, err := dialer.Dial("ws://viewshell/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to viewshell bridge at %s: %w (is viewshell serve running?)", sockPath, err)
	}

	c := &Client{
		ws:      ws,
		pending: make(map[string]chan BridgeResponse),
		events:  make(chan events.Event, events.DefaultBacklog),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// ExportPDF asks the host to export target to path and waits for the outcome.
// Failures reported by the host are returned as *pdfexport.Error carrying
// the kind sent over the wire.
func (c *Client) ExportPDF(target, path string) error {
	resp, err := c.roundTrip(BridgeRequest{Type: TypeExportPDF, Target: target, Path: path})
	if err != nil {
		return err
	}
	if resp.Type == TypeError {
		return &pdfexport.Error{Kind: pdfexport.ParseKind(resp.Kind), Msg: resp.Message}
	}
	return nil
}

// Load asks the host to load url into the surface target and waits until the
// document has finished loading.
func (c *Client) Load(target, url string) error {
	resp, err := c.roundTrip(BridgeRequest{Type: TypeLoad, Target: target, URL: url})
	if err != nil {
		return err
	}
	if resp.Type == TypeError {
		if kind := pdfexport.ParseKind(resp.Kind); kind != pdfexport.KindUnknown {
			return &pdfexport.Error{Kind: kind, Msg: resp.Message}
		}
		return errors.New(resp.Message)
	}
	return nil
}

// roundTrip sends req under a fresh id and waits for the matching reply.
func (c *Client) roundTrip(req BridgeRequest) (BridgeResponse, error) {
	req.ID = uuid.NewString()
	respc := make(chan BridgeResponse, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return BridgeResponse{}, ErrClosed
	}
	c.pending[req.ID] = respc
	c.mu.Unlock()

	if err := c.send(req); err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return BridgeResponse{}, fmt.Errorf("bridge request failed: %w", err)
	}

	resp, ok := <-respc
	if !ok {
		return BridgeResponse{}, ErrClosed
	}
	return resp, nil
}

// Ready tells the host this client is listening for events.
func (c *Client) Ready() error {
	if err := c.send(BridgeRequest{Type: TypeReady}); err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	return nil
}

// Events returns the events forwarded by the host after Ready. The channel is
// closed when the connection ends.
func (c *Client) Events() <-chan events.Event {
	return c.events
}

// Close ends the connection and waits for the reader to stop.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Client) send(req BridgeRequest) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(req)
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		for id, respc := range c.pending {
			close(respc)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.events)
		close(c.done)
	}()

	for {
		var resp BridgeResponse
		if err := c.ws.ReadJSON(&resp); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				logrus.WithError(err).Warn("bridge: malformed message from host")
				continue
			}
			return
		}

		switch resp.Type {
		case TypeEvent:
			if resp.Event == nil {
				continue
			}
			select {
			case c.events <- *resp.Event:
			default:
				logrus.WithField("event", resp.Event.Name).Warn("bridge: event channel full, dropping event")
			}

		case TypeResult, TypeError:
			c.mu.Lock()
			respc, ok := c.pending[resp.ID]
			delete(c.pending, resp.ID)
			c.mu.Unlock()
			if ok {
				respc <- resp
			} else if resp.Type == TypeError {
				logrus.WithField("message", resp.Message).Warn("bridge: host reported an error")
			}

		default:
			logrus.Warnf("bridge: unknown response type: %s", resp.Type)
		}
	}
}
