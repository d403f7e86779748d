package http

import (
	"net/http"
)

// RegisterWebsocket mounts the realtime speech channel at GET /ws.
// huma does not model websocket upgrades, so the handler goes on the mux directly.
func RegisterWebsocket(mux *http.ServeMux, handler http.Handler) {
	mux.Handle("GET /ws", handler)
}
