package handlers

// live.go: GET /ws/games/:id upgrades to a websocket that streams the game's roster.
// The client gets the current roster straight away and a fresh one after every join,
// leave or capacity change. Messages only flow server to client; anything the client
// sends is read and discarded so close frames are noticed.

import (
	fws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/store"
	"github.com/trentd187/pickup-run/internal/websocket"
)

// Locals keys handed from the HTTP half of the handler to the websocket half.
const (
	localGameID   = "liveGameID"
	localSnapshot = "liveSnapshot"
)

// LiveRoster returns the handler for the live roster websocket. It must run after Auth;
// browsers pass the token as ?token= because they can't set headers on an upgrade.
func LiveRoster(st *store.Store, hub *websocket.Hub, log logrus.FieldLogger) fiber.Handler {
	upgrade := fws.New(func(conn *fws.Conn) {
		gameID, _ := conn.Locals(localGameID).(uint)
		userID, _ := conn.Locals(middleware.LocalUserID).(uint)
		snapshot, _ := conn.Locals(localSnapshot).([]byte)

		client := websocket.NewClient(gameID, userID)
		if !hub.Register(client) {
			_ = conn.Close()
			return
		}
		middleware.LogWebSocketConnect(log, gameID, userID)

		// Reader: only there to notice the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		err := conn.WriteMessage(fws.TextMessage, snapshot)
	loop:
		for err == nil {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					// Dropped by the hub or the hub is shutting down.
					break loop
				}
				err = conn.WriteMessage(fws.TextMessage, msg)
			case <-gone:
				break loop
			}
		}

		hub.Unregister(client)
		_ = conn.Close()
		middleware.LogWebSocketDisconnect(log, gameID, userID, err)
	})

	return func(c *fiber.Ctx) error {
		if !fws.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		gameID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		roster, err := st.GetRoster(c.UserContext(), gameID)
		if err != nil {
			return err
		}
		resp, err := rosterResponse(c.UserContext(), st, roster)
		if err != nil {
			return err
		}
		snapshot, err := c.App().Config().JSONEncoder(websocket.Event{
			Type:   rosterEvent,
			GameID: gameID,
			Data:   resp,
		})
		if err != nil {
			return err
		}

		c.Locals(localGameID, gameID)
		c.Locals(localSnapshot, snapshot)
		return upgrade(c)
	}
}
