package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case Session:
		o.printSession(v)
	case SessionList:
		o.printSessionList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Room response type (matches API)
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	GameType     string    `json:"gameType"`
	Status       string    `json:"status"`
	Participants int       `json:"participants"`
	Capacity     int       `json:"capacity"`
	HasPassword  bool      `json:"hasPassword"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// ResultEntry is one participant's final standing
type ResultEntry struct {
	ParticipantRef string             `json:"participantRef"`
	DisplayName    string             `json:"displayName"`
	Score          int                `json:"score"`
	Rank           int                `json:"rank"`
	WalletRef      string             `json:"walletRef,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Session response type
type Session struct {
	ID          string        `json:"id"`
	RoomID      string        `json:"roomId"`
	GameType    string        `json:"gameType"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Results     []ResultEntry `json:"results,omitempty"`
}

// SessionList response type
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s (%s)\n", r.Name, r.ID)
	fmt.Printf("Game: %s\n", r.GameType)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Players: %d/%d\n", r.Participants, r.Capacity)
	if r.HasPassword {
		fmt.Println("Password: required")
	}
	fmt.Printf("Created: %s\n", r.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No active rooms")
		return
	}
	fmt.Printf("Rooms (%d):\n", len(l.Rooms))
	for _, r := range l.Rooms {
		locked := ""
		if r.HasPassword {
			locked = " [locked]"
		}
		fmt.Printf("  - %s (%s) %s %d/%d %s%s\n",
			r.Name, r.ID, r.GameType, r.Participants, r.Capacity, r.Status, locked)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("Room: %s\n", s.RoomID)
	fmt.Printf("Game: %s\n", s.GameType)
	fmt.Printf("Started: %s\n", s.StartedAt.Format(time.RFC3339))
	if s.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", s.CompletedAt.Format(time.RFC3339))
	}
	if len(s.Results) > 0 {
		fmt.Println("Results:")
		for _, r := range s.Results {
			fmt.Printf("  %d. %s - %d points\n", r.Rank, r.DisplayName, r.Score)
		}
	}
}

func (o *Output) printSessionList(l SessionList) {
	if len(l.Sessions) == 0 {
		fmt.Println("No sessions recorded")
		return
	}
	fmt.Printf("Sessions (%d):\n", len(l.Sessions))
	for _, s := range l.Sessions {
		state := "in progress"
		if s.CompletedAt != nil {
			state = "completed"
		}
		fmt.Printf("  - %s %s started %s (%s)\n",
			s.ID, s.GameType, s.StartedAt.Format(time.RFC3339), state)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
