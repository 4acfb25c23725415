package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/client"
	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/gamestate"
)

func newPeerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Run a game peer against the server",
	}

	cmd.AddCommand(newPeerRunCmd())

	return cmd
}

type peerFlags struct {
	gameName  string
	zone      int64
	ship      int64
	money     int64
	gameTime  float64
	duration  time.Duration
	noChat    bool
	noEconomy bool
	noTrack   bool
}

func newPeerRunCmd() *cobra.Command {
	peerCfg := client.DefaultPeerConfig()
	var f peerFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join and keep a session alive until interrupted",
		Long: `Join the shared universe as a peer, send heartbeats and sync the given
game facts on an interval. Game facts come from flags; unset facts are
reported as unknown. Press Ctrl+C to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			peerCfg.ServerURL = cfg.Server
			peerCfg.Token = cfg.Token
			peerCfg.Timeout = cfg.Timeout
			peerCfg.EnableChat = !f.noChat
			peerCfg.EnableEconomySync = !f.noEconomy
			peerCfg.EnablePlayerTracking = !f.noTrack

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			peer := client.NewPeer(peerCfg, gameFacts(cmd, f), clock.New(), logger)
			return runPeer(ctx, cmd, peer, f.duration)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&peerCfg.PlayerName, "name", "n", "", "Display name (defaults to the game name)")
	flags.DurationVar(&peerCfg.HeartbeatInterval, "heartbeat", peerCfg.HeartbeatInterval, "Heartbeat interval")
	flags.DurationVar(&peerCfg.SyncInterval, "sync", peerCfg.SyncInterval, "Player and economy sync interval")
	flags.StringVar(&f.gameName, "game-name", "", "In-game player name")
	flags.Int64Var(&f.zone, "zone", 0, "In-game zone id")
	flags.Int64Var(&f.ship, "ship", 0, "Occupied ship id")
	flags.Int64Var(&f.money, "money", 0, "Player money")
	flags.Float64Var(&f.gameTime, "game-time", 0, "Current game time")
	flags.DurationVar(&f.duration, "duration", 0, "Leave after this long (0 runs until interrupted)")
	flags.BoolVar(&f.noChat, "no-chat", false, "Disable chat on this peer")
	flags.BoolVar(&f.noEconomy, "no-economy", false, "Disable economy sync on this peer")
	flags.BoolVar(&f.noTrack, "no-tracking", false, "Disable player tracking on this peer")

	return cmd
}

// gameFacts answers game queries from the flags that were set
func gameFacts(cmd *cobra.Command, f peerFlags) *gamestate.StaticProvider {
	values := map[string]any{}
	set := func(flag, query string, v any) {
		if cmd.Flags().Changed(flag) {
			values[query] = v
		}
	}
	set("game-name", gamestate.QueryPlayerName, f.gameName)
	set("zone", gamestate.QueryPlayerZoneID, f.zone)
	set("ship", gamestate.QueryPlayerOccupiedShipID, f.ship)
	set("money", gamestate.QueryPlayerMoney, f.money)
	set("game-time", gamestate.QueryCurrentGameTime, f.gameTime)
	return gamestate.NewStaticProvider(values)
}

func runPeer(ctx context.Context, cmd *cobra.Command, peer *client.Peer, duration time.Duration) error {
	out := output(cmd)
	if err := peer.Start(ctx); err != nil {
		return err
	}
	out.PrintMessage("Joined as " + peer.PlayerName() + " (" + peer.PlayerID() + ")")

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
	case <-timeout:
	case <-peer.Done():
		out.PrintMessage("Lost connection to the server")
		return client.ErrNotConnected
	}

	leaveCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := peer.Stop(leaveCtx); err != nil {
		return err
	}
	out.PrintMessage("Left the session")
	return nil
}
