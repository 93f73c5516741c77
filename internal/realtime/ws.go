package realtime

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin admin frontends connect here; the session cookie is
	// already validated before the upgrade.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and bridges the broadcast stream onto a
// WebSocket connection, for clients that cannot hold an EventSource open.
func ServeWS(b *Broadcaster, c *gin.Context, clientID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("realtime: websocket upgrade failed:", err)
		return
	}

	client := b.AddClient(clientID, FormatWS)

	go wsWritePump(conn, client)
	go wsReadPump(b, conn, client)
}

// wsWritePump drains the client's broadcast channel onto the connection.
func wsWritePump(conn *websocket.Conn, client *Client) {
	defer func() {
		_ = conn.Close()
	}()
	for message := range client.Messages() {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// wsReadPump consumes the connection until it closes, then deregisters
// the client. Inbound messages are not part of the contract; the stream
// is one-way.
func wsReadPump(b *Broadcaster, conn *websocket.Conn, client *Client) {
	defer func() {
		b.RemoveClient(client)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("realtime: websocket read error: %v", err)
			}
			break
		}
	}
}
