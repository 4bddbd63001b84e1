package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 << 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// websocket serves one client. Requests on a connection are handled in
// order; each produces exactly one binary WAV frame or one JSON error frame.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()

	reqID := middleware.GetReqID(r.Context())
	conn.SetReadLimit(int64(s.maxText)*2 + 1024)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	frames := make(chan frame)
	done := make(chan struct{})
	go func() {
		defer close(frames)
		for {
			typ, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("httpapi: websocket read", "request_id", reqID, "error", err)
				}
				return
			}
			var f frame
			if typ != websocket.TextMessage {
				f.err = fmt.Errorf("%w: binary frames are not accepted", errBadRequest)
			} else if err := json.Unmarshal(data, &f.req); err != nil {
				f.err = fmt.Errorf("%w: frame is not a JSON request: %v", errBadRequest, err)
			}
			select {
			case frames <- f:
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := s.serveFrame(conn, r, f); err != nil {
				return
			}
		}
	}
}

// frame is one decoded client message.
type frame struct {
	req SynthesizeRequest
	err error
}

func (s *Server) serveFrame(conn *websocket.Conn, r *http.Request, f frame) error {
	req, err := f.req, f.err
	var data []byte
	if err == nil {
		_, data, err = s.run(r.Context(), &req)
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err != nil {
		_, code := classify(err)
		if code == "internal" {
			s.logger.Error("httpapi: websocket synthesis failed",
				"request_id", middleware.GetReqID(r.Context()),
				"id", req.ID,
				"error", err)
		}
		return conn.WriteJSON(ErrorResponse{ID: req.ID, Code: code, Error: err.Error()})
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}
