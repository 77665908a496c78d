package bridge

import (
	"os"
	"path/filepath"

	"viewshell/events"
	"viewshell/pdfexport"
)

// Message types.
const (
	TypeExportPDF = "ExportPDF" // client -> server
	TypeLoad      = "Load"      // client -> server
	TypeReady     = "Ready"     // client -> server
	TypeResult    = "Result"    // server -> client
	TypeError     = "Error"     // server -> client
	TypeEvent     = "Event"     // server -> client
)

// BridgeRequest is the wire format for messages sent by the UI glue.
type BridgeRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`     // correlates the Result or Error
	Target string `json:"target,omitempty"` // surface reference for ExportPDF
	Path   string `json:"path,omitempty"`   // destination for ExportPDF
	URL    string `json:"url,omitempty"`    // document for Load
}

// BridgeResponse is the wire format for messages sent by the host.
type BridgeResponse struct {
	Type    string        `json:"type"`
	ID      string        `json:"id,omitempty"`
	Kind    string        `json:"kind,omitempty"`    // error kind wire name
	Message string        `json:"message,omitempty"` // error message
	Event   *events.Event `json:"event,omitempty"`
}

// Router performs exports on behalf of bridge clients.
type Router interface {
	ExportPDF(target, path string) error
	Load(target, url string) error
}

// Navigator loads documents into host-owned surfaces.
type Navigator interface {
	Navigate(s pdfexport.Surface, url string) error
}

// SocketPath returns the default path of the bridge Unix socket. The caller
// creates its directory.
func SocketPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, _ = os.UserHomeDir()
	}
	return filepath.Join(configDir, "viewshell", "viewshell.sock")
}
