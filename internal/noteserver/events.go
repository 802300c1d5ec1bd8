package noteserver

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type eventConn struct {
	conn *websocket.Conn
}

type authEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// handleEvents upgrades to a websocket and parks the connection until an
// event for its token is pushed or the token's session ends.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	token, _, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.eventConns[token] = append(s.eventConns[token], eventConn{conn: conn})
	s.mu.Unlock()
}

// Watching reports whether at least one event stream is parked for token.
func (s *Server) Watching(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.eventConns[token]) > 0
}

// InvalidateToken revokes token server-side and pushes a token_invalidated
// event to every stream watching it.
func (s *Server) InvalidateToken(token, reason string) {
	s.push(token, authEvent{Type: "token_invalidated", Reason: reason})
}

// EndSession revokes token and pushes a signed_out event, as if the session
// ended through another client.
func (s *Server) EndSession(token string) {
	s.push(token, authEvent{Type: "signed_out"})
}

func (s *Server) push(token string, ev authEvent) {
	s.mu.Lock()
	s.revoked[token] = true
	conns := s.eventConns[token]
	delete(s.eventConns, token)
	s.mu.Unlock()

	for _, ec := range conns {
		_ = ec.conn.WriteJSON(ev)
		_ = ec.conn.Close()
	}
}

// CloseStreams drops every parked event connection; used at test teardown.
func (s *Server) CloseStreams() {
	s.mu.Lock()
	var conns []eventConn
	for _, cs := range s.eventConns {
		conns = append(conns, cs...)
	}
	s.eventConns = make(map[string][]eventConn)
	s.mu.Unlock()
	for _, ec := range conns {
		_ = ec.conn.Close()
	}
}
