package discord

import (
	"unicode/utf8"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

// Field limits enforced by Discord.
const (
	maxTextLen = 128
	minTextLen = 2
	maxURLLen  = 256
)

const (
	unknownTitle  = "Unknown title"
	unknownArtist = "Unknown artist"
	padding       = "⠀"
)

func newActivity(a core.Activity) *activity {
	out := &activity{
		Type:              activityListening,
		StatusDisplayType: displayDetails,
		Details:           fitText(a.Details, unknownTitle),
		DetailsURL:        fitURL(a.DetailsURL),
		State:             fitText(a.State, unknownArtist),
	}

	if a.HasTimestamps() {
		out.Timestamps = &timestamps{
			Start: a.Start.UnixMilli(),
			End:   a.End.UnixMilli(),
		}
	}

	as := assets{
		LargeImage: fitURL(a.LargeImage),
		LargeText:  fitText(a.LargeText, ""),
		SmallImage: fitURL(a.SmallImage),
		SmallText:  fitText(a.SmallText, ""),
	}
	if as != (assets{}) {
		out.Assets = &as
	}

	return out
}

// fitText clips s to the maximum length and pads one-character values.
// An empty s becomes fallback.
func fitText(s, fallback string) string {
	if s == "" {
		s = fallback
	}
	if s == "" {
		return ""
	}

	if utf8.RuneCountInString(s) > maxTextLen {
		runes := []rune(s)
		s = string(runes[:maxTextLen-3]) + "..."
	}
	for utf8.RuneCountInString(s) < minTextLen {
		s += padding
	}
	return s
}

// fitURL drops values longer than Discord accepts.
func fitURL(s string) string {
	if len(s) > maxURLLen {
		return ""
	}
	return s
}
