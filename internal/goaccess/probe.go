package goaccess

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

// ProbeTimeout bounds the websocket handshake.
const ProbeTimeout = 5 * time.Second

// ProbeWebSocket dials the real-time server behind wsURL and closes the
// connection cleanly. A nil error means the browser side can connect.
func ProbeWebSocket(ctx context.Context, wsURL string, insecure bool) error {
	d := websocket.Dialer{
		HandshakeTimeout: ProbeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if insecure {
		d.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed during bootstrap
	}
	// nolint:bodyclose
	conn, _, err := d.DialContext(ctx, wsURL, http.Header{"Origin": {"http://localhost"}})
	if err != nil {
		return exitcodes.NetworkErrf("goaccess websocket %s unreachable: %v", wsURL, err)
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}
