package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/model"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Server administration (moderator or admin token required)",
	}

	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminPermissionCmd())
	cmd.AddCommand(newAdminDeleteCmd())
	cmd.AddCommand(newAdminUnlockCmd())
	cmd.AddCommand(newAdminPlayersCmd())
	cmd.AddCommand(newAdminStatsCmd())
	cmd.AddCommand(newAdminConfigCmd())

	return cmd
}

func newAdminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Users(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminPermissionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "permission <username> <level>",
		Short: "Set a user's permission level (player, moderator, admin or 1-3)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[1])
			if err != nil {
				return err
			}
			result, err := apiClient.SetPermission(cmd.Context(), args[0], int(level))
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user and revoke their tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			output(cmd).PrintMessage(fmt.Sprintf("Deleted %s", args[0]))
			return nil
		},
	}
}

func newAdminUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <username>",
		Short: "Clear a user's login lockout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.UnlockUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List sessions with their full detail",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.AdminPlayers(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Stats(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show runtime settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Config(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.AddCommand(newAdminConfigSetCmd())

	return cmd
}

func newAdminConfigSetCmd() *cobra.Command {
	var ttl, maxPlayers int
	var allowGuests bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change runtime settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req request.UpdateConfigRequest
			if cmd.Flags().Changed("token-ttl") {
				req.TokenExpirationMinutes = &ttl
			}
			if cmd.Flags().Changed("allow-guests") {
				req.AllowGuests = &allowGuests
			}
			if cmd.Flags().Changed("max-players") {
				req.MaxPlayers = &maxPlayers
			}
			if req == (request.UpdateConfigRequest{}) {
				return fmt.Errorf("nothing to change: set --token-ttl, --allow-guests or --max-players")
			}

			result, err := apiClient.UpdateConfig(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&ttl, "token-ttl", 0, "Token lifetime in minutes")
	cmd.Flags().BoolVar(&allowGuests, "allow-guests", false, "Allow guest access")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Maximum concurrent players (0 for no limit)")

	return cmd
}

func parseLevel(s string) (model.PermissionLevel, error) {
	if n, err := strconv.Atoi(s); err == nil {
		level := model.PermissionLevel(n)
		if level.Valid() {
			return level, nil
		}
		return 0, fmt.Errorf("invalid permission level %q", s)
	}
	for _, level := range []model.PermissionLevel{model.PermissionPlayer, model.PermissionModerator, model.PermissionAdmin} {
		if strings.EqualFold(s, level.String()) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("invalid permission level %q", s)
}
