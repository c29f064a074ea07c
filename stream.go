package main

import (
	"github.com/gorilla/websocket"
	"github.com/tfischer/tfitpican/comms"
	"log"
	"net/http"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventStreamHandler upgrades the connection and attaches it to the
// conductor. The read loop exists only to notice the client going away.
func EventStreamHandler(conductor *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}

		conductor.AddClient(conn)
		defer conductor.RemoveClient(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
