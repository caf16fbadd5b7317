package core

import "time"

// Track is a track as reported by the status feed. Length and Position are
// in milliseconds; Position is as of the moment the feed sent the status.
type Track struct {
	Identifier string `json:"identifier"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	SourceName string `json:"sourceName"`
	Position   int64  `json:"position"`
	ArtworkURL string `json:"artworkUrl"`
}

// Duration returns the track length as a time.Duration.
func (t Track) Duration() time.Duration {
	return time.Duration(t.Length) * time.Millisecond
}

// Progress returns the reported position as a time.Duration.
func (t Track) Progress() time.Duration {
	return time.Duration(t.Position) * time.Millisecond
}
