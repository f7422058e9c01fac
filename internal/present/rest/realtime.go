package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/gatherd/gatherd/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type     string   `json:"type"`
	Meetings []string `json:"meetings"`
}

// handleRealtime streams meeting events over a websocket. Clients send
// {"type":"listen","meetings":[...]} to pick the meetings they watch; each
// listen replaces the previous set.
func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	ctx := c.Request().Context()

	input := make(chan []string)
	output := make(chan domain.Event)

	go h.events.Realtime(ctx, input, output)

	// quit is closed by the reader when it exits; done is closed by the
	// write loop so a reader blocked forwarding a listen frame can bail
	// out instead of sending into a torn-down stream.
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				return
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Meetings:
				case <-done:
					return
				}
				slog.DebugContext(
					ctx, "Socket subscribe",
					slog.Any("meetings", req.Meetings),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

loop:
	for {
		select {
		case <-quit:
			break loop
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				break loop
			}
		}
	}

	// Teardown order matters: release the reader, close the socket so a
	// blocked read returns, wait for the reader to finish, and only then
	// close input. Closing input under a live reader would panic on a
	// racing listen frame.
	close(done)
	ws.Close()
	<-quit
	close(input)
	return nil
}
