package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/realtime"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Publish and watch real-time events",
	}

	cmd.AddCommand(newEventsPublishCmd())
	cmd.AddCommand(newEventsWatchCmd())

	return cmd
}

func newEventsPublishCmd() *cobra.Command {
	var req request.BroadcastEventRequest
	var data string

	cmd := &cobra.Command{
		Use:   "publish <event-type>",
		Short: "Queue a custom event for delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.EventType = args[0]
			var err error
			if req.Data, err = jsonFlag("data", data); err != nil {
				return err
			}

			result, err := apiClient.PublishEvent(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Event payload as JSON")
	cmd.Flags().StringSliceVar(&req.Targets, "target", nil, "Deliver only to these usernames (repeatable)")

	return cmd
}

func newEventsWatchCmd() *cobra.Command {
	var jsonOutput bool
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream events from the real-time endpoint",
		Long: `Connect to the real-time WebSocket endpoint, authenticate with the current
token, and print events as they arrive.

Events include:
  - player_joined / player_left / player_timeout: Session changes
  - player_updated: A session changed sector or position
  - chat_message: A chat message was sent
  - economy_update: Shared economy data changed
  - any custom type published with 'mpctl events publish'

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchEvents(ctx, cmd.OutOrStdout(), jsonOutput, count)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

// streamedFrame is any frame the server sends
type streamedFrame struct {
	Type       string          `json:"type"`
	EventType  string          `json:"eventType,omitempty"`
	FromPlayer string          `json:"fromPlayer,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
	Success    bool            `json:"success,omitempty"`
	Username   string          `json:"username,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func watchEvents(ctx context.Context, w io.Writer, jsonOutput bool, count int) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.Realtime, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	if cfg.Token != "" {
		if err := conn.WriteJSON(realtime.InboundFrame{Type: realtime.FrameAuth, Token: cfg.Token}); err != nil {
			return fmt.Errorf("failed to send auth frame: %w", err)
		}
	}

	if !jsonOutput {
		fmt.Fprintf(w, "Connected to %s\n", cfg.Realtime)
	}

	seen := 0
	for {
		var frame streamedFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			return fmt.Errorf("stream error: %w", err)
		}

		switch frame.Type {
		case realtime.FrameAuthResponse:
			if !frame.Success {
				return fmt.Errorf("authentication failed: %s", frame.Error)
			}
			if !jsonOutput {
				fmt.Fprintf(w, "Authenticated as %s\n", frame.Username)
			}
		case realtime.FrameEvent:
			printEvent(w, frame, jsonOutput)
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		case realtime.FrameError:
			if !jsonOutput {
				fmt.Fprintf(w, "Server error: %s\n", frame.Error)
			}
		}
	}
}

func printEvent(w io.Writer, frame streamedFrame, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(frame)
		fmt.Fprintln(w, string(data))
		return
	}

	timestamp := time.Unix(frame.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(frame.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	displayData = strings.ReplaceAll(displayData, "\n", " ")
	from := ""
	if frame.FromPlayer != "" {
		from = " from " + frame.FromPlayer
	}
	fmt.Fprintf(w, "[%s] %s%s: %s\n", timestamp, frame.EventType, from, displayData)
}
