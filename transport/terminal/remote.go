package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/tile2048/transport/websocket"
)

// ErrConnectionClosed is returned when the server ends a remote game
var ErrConnectionClosed = errors.New("connection closed by server")

// DialSession opens the WebSocket of a session on a running server.
// baseURL is the server's HTTP address, e.g. http://localhost:8080.
func DialSession(ctx context.Context, baseURL, sessionID string) (*gorillaws.Conn, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"session": {sessionID}}.Encode()

	conn, _, err := gorillaws.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}
	return conn, nil
}

// Remote plays a server-side session over conn. Commands read from r are
// sent as WebSocket frames; every state the server pushes is drawn to w.
func Remote(ctx context.Context, conn *gorillaws.Conn, r io.Reader, w io.Writer) error {
	renderer := NewTextRenderer(w)
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg websocket.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			show(renderer, msg)
		}
	}()

	renderer.Printf("%s", Hint)

	lines := readLines(ctx, r)
	for {
		select {
		case <-ctx.Done():
			goodbye(conn)
			return ctx.Err()

		case <-closed:
			return ErrConnectionClosed

		case line, ok := <-lines:
			if !ok {
				goodbye(conn)
				return nil
			}
			quit, err := send(conn, renderer, ParseLine(line))
			if err != nil {
				return fmt.Errorf("failed to send command: %w", err)
			}
			if quit {
				goodbye(conn)
				return nil
			}
		}
	}
}

func show(renderer *TextRenderer, msg websocket.Message) {
	if msg.Event == websocket.EventError {
		renderer.Printf("Error: %v\n", msg.Data)
		return
	}
	if msg.GameState == nil {
		renderer.RenderGameOver(msg.Event == websocket.EventGameOver)
		return
	}
	renderer.RenderBoard(msg.GameState.Tiles, msg.GameState.Score)
	renderer.RenderGameOver(msg.GameState.GameOver)
}

func send(conn *gorillaws.Conn, renderer *TextRenderer, inputs []Input) (bool, error) {
	var unknown []string
	for _, in := range inputs {
		var cmd websocket.Command
		switch in.Action {
		case ActionQuit:
			return true, nil
		case ActionRestart:
			cmd = websocket.Command{Type: websocket.CommandRestart}
		case ActionMove:
			cmd = websocket.Command{Type: websocket.CommandMove, Direction: string(in.Direction)}
		default:
			unknown = append(unknown, in.Raw)
			continue
		}
		if err := conn.WriteJSON(cmd); err != nil {
			return false, err
		}
	}
	if len(unknown) > 0 {
		renderer.Printf("Unknown input %q. %s", strings.Join(unknown, ""), Hint)
	}
	return false, nil
}

func goodbye(conn *gorillaws.Conn) {
	conn.WriteMessage(gorillaws.CloseMessage,
		gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, "bye"))
}
