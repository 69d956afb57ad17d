package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/version"
)

const (
	// feedMaxPayload is the largest frame a dashboard may send.
	feedMaxPayload = 64 * 1024
	// handshakeTimeout bounds the wait for the connect frame.
	handshakeTimeout = 10 * time.Second
)

// feedEvents are the events pushed to connected dashboards.
var feedEvents = []string{EventChatMessage, EventChatConversation}

// handleFeed upgrades an operator dashboard to the live feed. The operator
// authenticates inside the socket since browsers cannot set headers on a
// WebSocket upgrade.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("feed rate limited")
		writeJSON(w, http.StatusTooManyRequests, errorBody{Detail: "too many failed attempts, try again later"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(feedMaxPayload)

	client, err := s.handshake(r.Context(), conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("feed handshake failed")
		s.authLimiter.recordFailure(r.RemoteAddr)
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	s.readLoop(client)
}

// handshake reads the connect request, validates the operator token and
// replies with hello-ok.
func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		sendErrorAndClose(conn, "", "protocol_error", "invalid frame")
		return nil, fmt.Errorf("parsing connect frame: %w", err)
	}
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		sendErrorAndClose(conn, frame.ID, "protocol_error", "expected connect request")
		return nil, fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method)
	}

	var params ConnectParams
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		sendErrorAndClose(conn, frame.ID, "invalid_params", "invalid connect params")
		return nil, fmt.Errorf("parsing connect params: %w", err)
	}
	if params.Auth == nil || params.Auth.Token == "" {
		sendErrorAndClose(conn, frame.ID, "unauthorized", "token required")
		return nil, fmt.Errorf("connect without token")
	}

	op, err := s.deps.Auth.Authenticate(ctx, params.Auth.Token)
	if err != nil {
		sendErrorAndClose(conn, frame.ID, "unauthorized", "invalid token")
		return nil, fmt.Errorf("authenticating operator: %w", err)
	}

	conn.SetReadDeadline(time.Time{})

	client := NewClient(conn, params.Client, op, s.log.Sub("feed"))
	hello := HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: version.Version,
			Commit:  version.Commit,
			ConnID:  client.ConnID,
		},
		Operator: op.ID,
		Events:   feedEvents,
		Policy:   ServerPolicy{MaxPayload: feedMaxPayload},
	}
	if err := client.Respond(frame.ID, hello); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Str("operator", op.Email).
		Msg("feed client authenticated")
	return client, nil
}

// readLoop serves requests from an authenticated dashboard until it
// disconnects. The feed is push-only apart from ping.
func (s *Server) readLoop(client *Client) {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			continue
		}

		switch frame.Method {
		case "ping":
			client.Respond(frame.ID, map[string]any{"ts": time.Now().UnixMilli()})
		default:
			client.RespondError(frame.ID, ErrorShape{
				Code:    "method_not_found",
				Message: "unknown method: " + frame.Method,
			})
		}
	}
}

// sendErrorAndClose sends an error response and closes the connection.
func sendErrorAndClose(conn *websocket.Conn, reqID, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(NewErrorResponse(reqID, ErrorShape{Code: code, Message: message}))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
}

// subscribeFeed forwards ledger events to connected dashboards. Handlers run
// inside the emitting call and only enqueue, so dashboards see messages in
// ledger order and a stalled dashboard never delays an append.
func (s *Server) subscribeFeed(hm *hooks.Manager) {
	hm.On(hooks.EventMessageAppended, "gateway.feed", func(_ context.Context, p hooks.Payload) error {
		msg, ok := p.Data[hooks.KeyMessage].(domain.Message)
		if !ok {
			return fmt.Errorf("unexpected message payload %T", p.Data[hooks.KeyMessage])
		}
		s.clients.Broadcast(EventChatMessage, MessageEvent{
			ConversationID: msg.ConversationID,
			Message:        msg,
		})
		return nil
	})

	hm.On(hooks.EventConversationStarted, "gateway.feed", func(_ context.Context, p hooks.Payload) error {
		conv, ok := p.Data[hooks.KeyConversation].(domain.Conversation)
		if !ok {
			return fmt.Errorf("unexpected conversation payload %T", p.Data[hooks.KeyConversation])
		}
		s.clients.Broadcast(EventChatConversation, conv)
		return nil
	})
}
