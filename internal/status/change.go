package status

import "github.com/musiccat/musiccat-rpc/internal/core"

// HasChanged reports whether curr differs from prev in a way the presence
// display must reflect right away. Playback progress alone is not a change;
// it is picked up by the periodic refresh. The track URI is the identity key,
// so title or author edits on the same URI are ignored.
func HasChanged(prev *core.Status, curr core.Status) bool {
	if prev == nil {
		return true
	}
	if prev.IsPlaying != curr.IsPlaying {
		return true
	}
	if prev.IsPaused != curr.IsPaused {
		return true
	}
	return prev.Track.URI != curr.Track.URI
}
