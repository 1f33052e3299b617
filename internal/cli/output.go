package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/services/server"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case response.ChannelList:
		o.printChannelList(v)
	case server.ChannelStatus:
		o.printChannel(v)
	case response.User:
		o.printUser(v)
	case response.Game:
		o.printGame(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printChannelList(l response.ChannelList) {
	if len(l.Channels) == 0 {
		fmt.Fprintln(o.w, "No channels configured")
		return
	}
	for i, st := range l.Channels {
		if i > 0 {
			fmt.Fprintln(o.w)
		}
		o.printChannel(st)
	}
}

func (o *Output) printChannel(st server.ChannelStatus) {
	fmt.Fprintf(o.w, "Channel: %s\n", st.Target)
	fmt.Fprintf(o.w, "  State: %s (since %s)\n", st.State, st.Since.Format(time.RFC3339))
	if st.Reconnects > 0 {
		fmt.Fprintf(o.w, "  Reconnects: %d\n", st.Reconnects)
	}
	if st.LastError != "" {
		fmt.Fprintf(o.w, "  Last error: %s\n", st.LastError)
	}
	if st.Serving != nil {
		fmt.Fprintf(o.w, "  Serving: %s [%s]", displayName(st.Serving.Username, st.Serving.User), st.Serving.State)
		if st.Serving.ActiveGame != "" {
			fmt.Fprintf(o.w, " game=%s", st.Serving.ActiveGame)
		}
		fmt.Fprintf(o.w, " commands=%d\n", st.Serving.Commands)
	} else {
		fmt.Fprintln(o.w, "  Serving: -")
	}
	if len(st.Queue) == 0 {
		fmt.Fprintln(o.w, "  Queue: empty")
		return
	}
	names := make([]string, len(st.Queue))
	for i, id := range st.Queue {
		names[i] = displayName("", id)
	}
	fmt.Fprintf(o.w, "  Queue: %s\n", strings.Join(names, ", "))
}

func (o *Output) printUser(u response.User) {
	fmt.Fprintf(o.w, "User: %s\n", displayName(u.Username, u.ID))
	fmt.Fprintf(o.w, "  ID: %s\n", u.ID)
	if u.HasAccount {
		fmt.Fprintf(o.w, "  Account: yes (password set: %t)\n", u.HasPassword)
	} else {
		fmt.Fprintln(o.w, "  Account: no")
	}
	if len(u.PlayedGames) == 0 {
		fmt.Fprintln(o.w, "  Games: none")
		return
	}
	fmt.Fprintf(o.w, "  Games: %s\n", strings.Join(u.PlayedGames, ", "))
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	if len(g.Data) == 0 {
		fmt.Fprintln(o.w, "  (no data)")
		return
	}
	keys := make([]string, 0, len(g.Data))
	for k := range g.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(o.w, "  %s = %s\n", k, g.Data[k])
	}
}

// displayName prefers the stored username, then the decoded id
func displayName(username string, id model.UserID) string {
	if username != "" {
		return username
	}
	if decoded, err := channel.DecodeNumeric(string(id)); err == nil {
		return decoded
	}
	return string(id)
}
