package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4 * 1024
)

// clientEvent is a browser event forwarded by the live script.
type clientEvent struct {
	HID   string `json:"hid"`
	Event string `json:"event"`
}

func (h *Handler) serveLive(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.URL.Query().Get("session"))
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	detach := h.sessions.Attach(sess.ID)
	defer detach()

	updates := make(chan Update, 16)
	unsubscribe := sess.Subscribe(func(u Update) {
		select {
		case updates <- u:
		default:
			sess.logger.Warn("live connection slow, dropping update")
		}
	})
	defer unsubscribe()

	// The page may have changed between the initial GET and the upgrade.
	if url := sess.Redirect(); url != "" {
		updates <- Update{Redirect: url}
	} else {
		updates <- Update{HTML: sess.HTML()}
	}

	stop := make(chan struct{})
	go h.writeLoop(conn, sess, updates, stop)
	h.readLoop(conn, sess)
	close(stop)
}

func (h *Handler) readLoop(conn *websocket.Conn, sess *Session) {
	defer conn.Close()

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev clientEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				sess.logger.Warn("read error", "error", err)
			}
			return
		}
		if err := sess.HandleEvent(ev.HID, ev.Event); err != nil {
			sess.logger.Debug("event dropped", "hid", ev.HID, "event", ev.Event, "error", err)
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, sess *Session, updates <-chan Update, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case u := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				sess.logger.Debug("write error", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sess.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeWait))
			return
		case <-stop:
			return
		}
	}
}
