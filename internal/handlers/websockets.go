package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartfarmdiy/strawbydetet/internal/logger"
	"github.com/smartfarmdiy/strawbydetet/internal/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveViewHandler upgrades the connection and registers the viewer with the
// hub; the viewer then receives pushed percentage snapshots until it closes.
func LiveViewHandler(hub *ws.Hub, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		hub.Register(connection)
		defer hub.Unregister(connection)

		log.Info("Viewer connected")

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				log.Info("Viewer disconnected: %v", err)
				break
			}
		}
	}
}
