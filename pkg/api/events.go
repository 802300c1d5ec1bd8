package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/notefold/notefold.go/pkg/logger"
)

// EventType names a server-pushed auth event.
type EventType string

const (
	// EventTokenInvalidated means the server revoked the session token.
	EventTokenInvalidated EventType = "token_invalidated"
	// EventSignedOut means the session ended through another client.
	EventSignedOut EventType = "signed_out"
)

// Event is one message on the auth event stream.
type Event struct {
	Type   EventType `json:"type"`
	Reason string    `json:"reason,omitempty"`
}

// EventStream is a live feed of auth events for one session token.
// Events arrive on C until the stream fails or is closed, at which point C
// is closed.
type EventStream struct {
	C chan Event

	conn *websocket.Conn
}

// Events opens the websocket auth event stream for token.
func (c *Client) Events(ctx context.Context, token string) (*EventStream, error) {
	wsURL, err := eventsURL(c.baseURL, token)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial auth events: %w", err)
	}

	stream := &EventStream{
		C:    make(chan Event, 8),
		conn: conn,
	}
	go stream.readLoop(c.log)
	return stream, nil
}

// Close tears down the stream. C is closed once the reader exits.
func (s *EventStream) Close() error {
	return s.conn.Close()
}

func (s *EventStream) readLoop(log logger.Logger) {
	defer close(s.C)
	for {
		var ev Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			log.Debug("auth event stream closed", "error", err)
			return
		}
		s.C <- ev
	}
}

func eventsURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/auth/v1/events"
	u.RawQuery = url.Values{"access_token": {token}}.Encode()
	return u.String(), nil
}
