// Package mpris mirrors the presence onto the D-Bus session bus as a
// read-only MPRIS media player, so desktop widgets can show it too.
package mpris

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

const (
	objectPath  = "/org/mpris/MediaPlayer2"
	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"

	// BusName is the well-known name the player registers.
	BusName = "org.mpris.MediaPlayer2.musiccat"
)

// Playback states.
const (
	StatusPlaying = "Playing"
	StatusStopped = "Stopped"
)

// Player is an MPRIS player backed by the current presence.
type Player struct {
	conn  *dbus.Conn
	props *prop.Properties
	log   *slog.Logger
	now   func() time.Time
}

// Register connects to the session bus and claims BusName.
func Register(log *slog.Logger) (*Player, error) {
	if log == nil {
		log = slog.Default()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	p := &Player{conn: conn, log: log, now: time.Now}
	if err := p.export(); err != nil {
		conn.Close()
		return nil, err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("request %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errors.New("mpris: name already owned")
	}

	log.Info("mpris player registered", "name", BusName)
	return p, nil
}

func (p *Player) export() error {
	player := map[string]*prop.Prop{
		"CanControl":     {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanGoNext":      {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanGoPrevious":  {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanPause":       {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanPlay":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanSeek":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"Metadata":       {Value: Metadata(core.Activity{}), Writable: false, Emit: prop.EmitTrue},
		"PlaybackStatus": {Value: StatusStopped, Writable: false, Emit: prop.EmitTrue},
		"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse},
		"Rate":           {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"MinimumRate":    {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"MaximumRate":    {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"Volume":         {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
	}

	root := map[string]*prop.Prop{
		"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse},
		"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"Identity":            {Value: "MusicCat", Writable: false, Emit: prop.EmitFalse},
		"SupportedUriSchemes": {Value: []string{}, Writable: false, Emit: prop.EmitFalse},
		"SupportedMimeTypes":  {Value: []string{}, Writable: false, Emit: prop.EmitFalse},
	}

	props, err := prop.Export(p.conn, objectPath, map[string]map[string]*prop.Prop{
		rootIface:   root,
		playerIface: player,
	})
	if err != nil {
		return fmt.Errorf("export mpris properties: %w", err)
	}
	p.props = props

	node := &introspect.Node{
		Name: objectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{Name: rootIface, Properties: props.Introspection(rootIface)},
			{Name: playerIface, Properties: props.Introspection(playerIface)},
		},
	}
	err = p.conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("export mpris introspection: %w", err)
	}
	return nil
}

// SetActivity publishes a as the playing track.
func (p *Player) SetActivity(_ context.Context, a core.Activity) error {
	p.props.SetMust(playerIface, "Metadata", Metadata(a))
	p.props.SetMust(playerIface, "Position", PositionAt(a, p.now()))
	p.props.SetMust(playerIface, "PlaybackStatus", StatusPlaying)
	return nil
}

// ClearActivity reports that nothing is playing.
func (p *Player) ClearActivity(_ context.Context) error {
	p.props.SetMust(playerIface, "Metadata", Metadata(core.Activity{}))
	p.props.SetMust(playerIface, "Position", int64(0))
	p.props.SetMust(playerIface, "PlaybackStatus", StatusStopped)
	return nil
}

// Close releases the bus name and the connection.
func (p *Player) Close() error {
	if _, err := p.conn.ReleaseName(BusName); err != nil {
		p.log.Debug("mpris release name", "error", err)
	}
	return p.conn.Close()
}

// Metadata builds the MPRIS metadata map for a. The zero Activity yields the
// "no track" metadata.
func Metadata(a core.Activity) map[string]any {
	if a.Details == "" && a.DetailsURL == "" {
		return map[string]any{
			"mpris:trackid": dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack"),
		}
	}

	md := map[string]any{
		"mpris:trackid": TrackID(a.DetailsURL),
		"xesam:title":   a.Details,
		"xesam:artist":  []string{a.State},
	}
	if a.DetailsURL != "" {
		md["xesam:url"] = a.DetailsURL
	}
	if a.LargeImage != "" {
		md["mpris:artUrl"] = a.LargeImage
	}
	if a.HasTimestamps() {
		md["mpris:length"] = a.End.Sub(*a.Start).Microseconds()
	}
	return md
}

// PositionAt returns the playback position in microseconds.
func PositionAt(a core.Activity, now time.Time) int64 {
	if a.Start == nil {
		return 0
	}
	pos := now.Sub(*a.Start)
	if pos < 0 {
		return 0
	}
	if a.End != nil {
		if length := a.End.Sub(*a.Start); pos > length {
			pos = length
		}
	}
	return pos.Microseconds()
}

// TrackID derives a stable D-Bus object path from a track URI.
func TrackID(uri string) dbus.ObjectPath {
	h := fnv.New64a()
	h.Write([]byte(uri))
	return dbus.ObjectPath(fmt.Sprintf("/org/musiccat/track/%016x", h.Sum64()))
}

var _ core.Display = (*Player)(nil)
