package cli

import (
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/api/request"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Join, leave and inspect player sessions",
	}

	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionLeaveCmd())
	cmd.AddCommand(newSessionHeartbeatCmd())
	cmd.AddCommand(newSessionUpdateCmd())
	cmd.AddCommand(newSessionListCmd())

	return cmd
}

func newSessionJoinCmd() *cobra.Command {
	var req request.JoinRequest
	var position, data string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the shared universe",
		Long: `Join the shared universe. A new player id is generated when --id is omitted;
pass it to later session commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.PlayerID == "" {
				req.PlayerID = ulid.Make().String()
			}
			var err error
			if req.Position, err = jsonFlag("position", position); err != nil {
				return err
			}
			if req.PlayerData, err = jsonFlag("data", data); err != nil {
				return err
			}

			result, err := apiClient.Join(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PlayerID, "id", "", "Player id (generated if omitted)")
	cmd.Flags().StringVarP(&req.PlayerName, "name", "n", "", "Display name (required)")
	cmd.Flags().StringVar(&req.CurrentSector, "sector", "", "Current sector")
	cmd.Flags().StringVar(&position, "position", "", "Position as JSON")
	cmd.Flags().StringVar(&data, "data", "", "Player data as JSON")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSessionLeaveCmd() *cobra.Command {
	var playerID string

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave the shared universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Leave(cmd.Context(), playerID)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "id", "", "Player id (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newSessionHeartbeatCmd() *cobra.Command {
	var req request.HeartbeatRequest
	var sector, position string

	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Refresh a session's liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("sector") {
				req.CurrentSector = &sector
			}
			var err error
			if req.Position, err = jsonFlag("position", position); err != nil {
				return err
			}

			result, err := apiClient.Heartbeat(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PlayerID, "id", "", "Player id (required)")
	cmd.Flags().StringVar(&sector, "sector", "", "Current sector")
	cmd.Flags().StringVar(&position, "position", "", "Position as JSON")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newSessionUpdateCmd() *cobra.Command {
	var req request.UpdatePlayerRequest
	var name, sector, position, data string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update fields of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("name") {
				req.PlayerName = &name
			}
			if cmd.Flags().Changed("sector") {
				req.CurrentSector = &sector
			}
			var err error
			if req.Position, err = jsonFlag("position", position); err != nil {
				return err
			}
			if req.PlayerData, err = jsonFlag("data", data); err != nil {
				return err
			}

			result, err := apiClient.UpdatePlayer(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PlayerID, "id", "", "Player id (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVar(&sector, "sector", "", "Current sector")
	cmd.Flags().StringVar(&position, "position", "", "Position as JSON")
	cmd.Flags().StringVar(&data, "data", "", "Player data as JSON")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List present players",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Players(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

// jsonFlag validates a JSON-valued flag. An empty value means unset.
func jsonFlag(name, value string) (json.RawMessage, error) {
	if value == "" {
		return nil, nil
	}
	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("--%s must be valid JSON", name)
	}
	return json.RawMessage(value), nil
}
