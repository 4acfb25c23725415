package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/api/request"
)

func newChatCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Show recent chat messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Chat(cmd.Context(), limit)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Number of messages (server default if 0)")
	cmd.AddCommand(newChatSendCmd())

	return cmd
}

func newChatSendCmd() *cobra.Command {
	var req request.ChatRequest

	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Message = strings.Join(args, " ")
			result, err := apiClient.SendChat(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PlayerID, "id", "", "Sending player id (required)")
	cmd.Flags().StringVarP(&req.PlayerName, "name", "n", "", "Sending player name (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
