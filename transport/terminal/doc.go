// Package terminal provides a text front end for 2048.
//
// TextRenderer implements engine.Renderer and draws a boxed 4x4 board with
// the score after every accepted move and on restart. Play runs a local
// game against an engine; Remote plays a server session over its WebSocket,
// sending commands and drawing every state the server pushes.
//
// Input is read line by line. Accepted commands:
//   - w/a/s/d or up/down/left/right
//   - arrow keys (ESC [ A..D)
//   - r or restart
//   - q or quit
//
// Anything else prints a hint and is otherwise ignored.
package terminal
