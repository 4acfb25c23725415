package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/client"
	"github.com/mcoot/mpcoord/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.RegisterResponse:
		fmt.Fprintf(o.w, "Registered: %s\n", v.Username)
	case response.LoginResponse:
		o.printLogin(v)
	case response.ValidateResponse:
		o.printValidate(v)
	case response.UsersResponse:
		o.printUsers(v)
	case response.UserResponse:
		o.printUser(v.User)
	case response.JoinResponse:
		fmt.Fprintf(o.w, "Joined as %s (%s)\n", v.Player.PlayerName, v.Player.PlayerID)
		fmt.Fprintf(o.w, "Universe Time: %g\n", v.UniverseTime)
	case response.LeaveResponse:
		if v.Removed {
			fmt.Fprintln(o.w, "Left the session")
		} else {
			fmt.Fprintln(o.w, "No such session")
		}
	case response.HeartbeatResponse:
		if v.Known {
			fmt.Fprintf(o.w, "Heartbeat acknowledged (universe time %g)\n", v.UniverseTime)
		} else {
			fmt.Fprintln(o.w, "Session unknown, join again")
		}
	case response.UpdatePlayerResponse:
		if v.Player != nil {
			o.printPlayers([]response.Player{*v.Player})
		} else {
			fmt.Fprintln(o.w, "Session unknown, join again")
		}
	case response.PlayersResponse:
		o.printPlayers(v.Players)
	case response.UniverseResponse:
		o.printUniverse(v)
	case response.EconomyResponse:
		o.printEconomy(v)
	case response.ChatResponse:
		o.printChat(v.Messages)
	case response.ChatSentResponse:
		o.printChat([]response.ChatMessage{v.ChatMessage})
	case response.EventQueuedResponse:
		fmt.Fprintf(o.w, "Queued %s event", v.EventType)
		if v.Targets > 0 {
			fmt.Fprintf(o.w, " for %d target(s)", v.Targets)
		}
		fmt.Fprintln(o.w)
	case response.ServerInfoResponse:
		o.printInfo(v)
	case response.StatsResponse:
		o.printStats(v)
	case response.ConfigResponse:
		o.printConfig(v)
	case client.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printLogin(l response.LoginResponse) {
	fmt.Fprintf(o.w, "Logged in as %s (%s)\n", l.Username, model.PermissionLevel(l.PermissionLevel))
	fmt.Fprintf(o.w, "Token: %s\n", l.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", formatUnix(l.ExpiresAt))
}

func (o *Output) printValidate(v response.ValidateResponse) {
	if !v.Valid {
		fmt.Fprintln(o.w, "Token is not valid")
		return
	}
	fmt.Fprintf(o.w, "Token valid for %s (%s)\n", v.Username, model.PermissionLevel(v.PermissionLevel))
	fmt.Fprintf(o.w, "Expires: %s\n", formatUnix(v.ExpiresAt))
}

func (o *Output) printUsers(u response.UsersResponse) {
	fmt.Fprintf(o.w, "Users (%d):\n", len(u.Users))
	for _, user := range u.Users {
		status := ""
		if !user.IsActive {
			status = " [inactive]"
		}
		if user.FailedLogins > 0 {
			status += fmt.Sprintf(" [%d failed logins]", user.FailedLogins)
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s\n", user.Username, model.PermissionLevel(user.PermissionLevel), status)
	}
	fmt.Fprintf(o.w, "Active Tokens: %d\n", u.Stats.ActiveTokens)
}

func (o *Output) printUser(u response.User) {
	fmt.Fprintf(o.w, "User: %s\n", u.Username)
	if u.Email != "" {
		fmt.Fprintf(o.w, "Email: %s\n", u.Email)
	}
	fmt.Fprintf(o.w, "Permission: %s\n", model.PermissionLevel(u.PermissionLevel))
	fmt.Fprintf(o.w, "Active: %t\n", u.IsActive)
	fmt.Fprintf(o.w, "Failed Logins: %d\n", u.FailedLogins)
}

func (o *Output) printPlayers(players []response.Player) {
	fmt.Fprintf(o.w, "Players (%d):\n", len(players))
	for _, p := range players {
		sector := ""
		if p.CurrentSector != "" {
			sector = " in " + p.CurrentSector
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s, last seen %s\n", p.PlayerName, p.PlayerID, sector, formatUnix(p.LastHeartbeat))
	}
}

func (o *Output) printUniverse(u response.UniverseResponse) {
	fmt.Fprintf(o.w, "Universe Time: %g\n", u.UniverseTime)
	fmt.Fprintf(o.w, "Active Players: %d\n", u.ActivePlayers)
	if len(u.GlobalEconomy) > 0 {
		fmt.Fprintf(o.w, "Economy: %s\n", compact(u.GlobalEconomy))
	}
	if len(u.FactionRelations) > 0 {
		fmt.Fprintf(o.w, "Faction Relations: %s\n", compact(u.FactionRelations))
	}
	if u.LastUpdate > 0 {
		fmt.Fprintf(o.w, "Last Update: %s\n", formatUnix(u.LastUpdate))
	}
}

func (o *Output) printEconomy(e response.EconomyResponse) {
	sections := []struct {
		name string
		data map[string]json.RawMessage
	}{
		{"Stations", e.Stations},
		{"Prices", e.Prices},
		{"Supply/Demand", e.SupplyDemand},
	}
	for _, s := range sections {
		fmt.Fprintf(o.w, "%s (%d):\n", s.name, len(s.data))
		for _, id := range sortedKeys(s.data) {
			fmt.Fprintf(o.w, "  %s: %s\n", id, compact(s.data[id]))
		}
	}
	if len(e.FactionRelations) > 0 {
		fmt.Fprintf(o.w, "Faction Relations: %s\n", compact(e.FactionRelations))
	}
}

func (o *Output) printChat(messages []response.ChatMessage) {
	if len(messages) == 0 {
		fmt.Fprintln(o.w, "No messages")
		return
	}
	for _, m := range messages {
		fmt.Fprintf(o.w, "[%s] %s: %s\n", formatUnix(m.Timestamp), m.PlayerName, m.Message)
	}
}

func (o *Output) printInfo(i response.ServerInfoResponse) {
	fmt.Fprintf(o.w, "Server: %s (v%s)\n", i.ServerName, i.Version)
	fmt.Fprintf(o.w, "Players: %d/%d\n", i.ActivePlayers, i.MaxPlayers)
	fmt.Fprintf(o.w, "Universe Time: %g\n", i.UniverseTime)
	fmt.Fprintf(o.w, "Uptime: %s\n", time.Duration(i.Uptime)*time.Second)
	o.printFeatures(i.Features)
}

func (o *Output) printStats(s response.StatsResponse) {
	fmt.Fprintf(o.w, "Players: %d/%d\n", s.ActivePlayers, s.MaxPlayers)
	fmt.Fprintf(o.w, "Registered Users: %d\n", s.RegisteredUsers)
	fmt.Fprintf(o.w, "Active Tokens: %d\n", s.ActiveTokens)
	fmt.Fprintf(o.w, "Connections: %d (%d authenticated)\n", s.WSConnections, s.AuthenticatedConnections)
	fmt.Fprintf(o.w, "Locked Accounts: %d\n", s.LockedAccounts)
	fmt.Fprintf(o.w, "Pending Events: %d\n", s.PendingEvents)
	fmt.Fprintf(o.w, "Chat Messages: %d\n", s.ChatMessages)
	fmt.Fprintf(o.w, "Uptime: %s\n", time.Duration(s.Uptime)*time.Second)
}

func (o *Output) printConfig(c response.ConfigResponse) {
	fmt.Fprintf(o.w, "Server: %s\n", c.ServerName)
	fmt.Fprintf(o.w, "Token Expiration: %d minutes\n", c.TokenExpirationMinutes)
	fmt.Fprintf(o.w, "Allow Guests: %t\n", c.AllowGuests)
	fmt.Fprintf(o.w, "Max Players: %d\n", c.MaxPlayers)
	o.printFeatures(c.Features)
}

func (o *Output) printFeatures(f response.Features) {
	enabled := []string{}
	if f.EnableChat {
		enabled = append(enabled, "chat")
	}
	if f.EnableEconomySync {
		enabled = append(enabled, "economy")
	}
	if f.EnablePlayerTracking {
		enabled = append(enabled, "tracking")
	}
	if len(enabled) == 0 {
		enabled = append(enabled, "none")
	}
	fmt.Fprintf(o.w, "Features: %s\n", strings.Join(enabled, ", "))
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return "never"
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04:05")
}

func compact(raw json.RawMessage) string {
	s := strings.ReplaceAll(string(raw), "\n", " ")
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
