package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Manage game rooms",
	}

	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsGetCmd())
	cmd.AddCommand(newRoomsCreateCmd())

	return cmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList
			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomsCreateCmd() *cobra.Command {
	var (
		name     string
		maxSize  int
		password string
		tuning   string
	)

	cmd := &cobra.Command{
		Use:   "create <id> <game-type>",
		Short: "Create a room",
		Long: `Create a room running the given game type.

Game types: shooter, racer, towerdefence, quiz`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := map[string]any{}
			if name != "" {
				config["name"] = name
			}
			if maxSize > 0 {
				config["maxParticipants"] = maxSize
			}
			if password != "" {
				config["password"] = password
			}
			if tuning != "" {
				var raw json.RawMessage
				if err := json.Unmarshal([]byte(tuning), &raw); err != nil {
					return fmt.Errorf("invalid tuning JSON: %w", err)
				}
				config["tuning"] = raw
			}

			body := map[string]any{
				"id":       args[0],
				"gameType": args[1],
				"config":   config,
			}

			var result Room
			if err := client.Post("/api/v1/rooms", body, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the room")
	cmd.Flags().IntVar(&maxSize, "max-participants", 0, "Participant capacity")
	cmd.Flags().StringVar(&password, "password", "", "Room password")
	cmd.Flags().StringVar(&tuning, "tuning", "", "Game tuning overrides as JSON")

	return cmd
}
