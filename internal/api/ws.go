package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bbernstein/qlove-go/internal/services/dmx"
	"github.com/bbernstein/qlove-go/internal/services/pubsub"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// streamDMX upgrades to a websocket and streams every frame sent to the
// lights, starting with the last one.
func (h *Handler) streamDMX(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.PubSub.Subscribe(pubsub.TopicDMXOutput, "", 16)
	defer h.PubSub.Unsubscribe(sub)

	// Reader: only control frames are expected; a read error means the
	// client went away.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last := h.DMX.LastFrame()
	if err := writeFrame(conn, dmx.UniverseOutput{Universe: 1, Channels: last.Ints()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Channel:
			if !ok {
				return
			}
			if err := writeFrame(conn, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}
