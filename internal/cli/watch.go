package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		password string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Watch a live room as a spectator",
		Long: `Attach to a room's realtime stream as a spectator and print
snapshot and event frames as they arrive.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(args[0], password, jsonOut)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Room password")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output frames as JSON lines")

	return cmd
}

// frame is the subset of the wire envelope the watcher displays
type frame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Tick    uint64          `json:"tick,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Event   json.RawMessage `json:"event,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

func watchRoom(roomID, password string, jsonOut bool) error {
	wsURL, err := attachURL(cfg.ServerURL, roomID, password)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	fmt.Fprintf(os.Stderr, "Watching room %s (Ctrl+C to stop)\n", roomID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return nil
		}
		printFrame(data, jsonOut)
	}
}

// attachURL converts the configured HTTP server URL into the room's
// websocket attach URL
func attachURL(serverURL, roomID, password string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path += "/api/v1/rooms/" + roomID + "/ws"

	q := u.Query()
	q.Set("spectate", "true")
	if password != "" {
		q.Set("password", password)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func printFrame(data []byte, jsonOut bool) {
	if jsonOut {
		fmt.Println(string(data))
		return
	}

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		fmt.Println(string(data))
		return
	}

	switch f.Type {
	case "joined":
		fmt.Printf("[%s] attached to room %s\n", timestamp(), f.Room)
	case "snapshot":
		fmt.Printf("[%s] tick %d: %s\n", timestamp(), f.Tick, compact(f.State))
	case "event":
		fmt.Printf("[%s] event: %s\n", timestamp(), compact(f.Event))
	case "error":
		fmt.Printf("[%s] error %s: %s\n", timestamp(), f.Code, f.Message)
	default:
		fmt.Printf("[%s] %s\n", timestamp(), string(data))
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
