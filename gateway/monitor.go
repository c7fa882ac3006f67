package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// monitorFrame is one push on the monitor stream.
type monitorFrame struct {
	Timestamp time.Time `json:"timestamp"`
	Domains   int       `json:"domains"`
	Channels  int       `json:"channels"`
	Swarms    int       `json:"swarms"`
	Snapshot  any       `json:"snapshot"`
}

// handleMonitor upgrades to a websocket and streams registry snapshots until
// the client goes away.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("monitor upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Reader goroutine: the client never sends data, but reading is what
	// surfaces close frames and dead connections.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First frame immediately so clients don't wait a full tick.
	if err := s.pushFrame(conn); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := s.pushFrame(conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushFrame(conn *websocket.Conn) error {
	snap := s.registry.Snapshot()
	frame := monitorFrame{
		Timestamp: snap.Taken,
		Domains:   len(snap.Domains),
		Channels:  len(snap.Channels),
		Swarms:    len(snap.Swarms),
		Snapshot:  snap,
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(frame)
}
