package bakeao

import (
	"slices"

	"github.com/goliatone/go-bakeao/pkg/activity"
	"github.com/goliatone/go-bakeao/pkg/asset"
)

type purge struct {
	supported []asset.ID
	remaps    []RemapEntry
}

func (p purge) empty() bool {
	return len(p.supported) == 0 && len(p.remaps) == 0
}

// validateLocked drops entries referencing null or deleted assets. With a
// frame counter it runs at most once per frame, otherwise only after the
// settings were invalidated.
func (s *Settings) validateLocked() purge {
	if s.cfg.frames != nil {
		frame := s.cfg.frames.RenderedFrameCount()
		if s.validated && frame == s.lastFrame {
			return purge{}
		}
		s.validated = true
		s.lastFrame = frame
	} else {
		if !s.stale {
			return purge{}
		}
		s.stale = false
	}

	var p purge
	s.remaps = slices.DeleteFunc(s.remaps, func(entry RemapEntry) bool {
		if s.alive(entry.Source) && s.alive(entry.Target) {
			return false
		}
		p.remaps = append(p.remaps, entry)
		return true
	})
	s.supported = slices.DeleteFunc(s.supported, func(id asset.ID) bool {
		if s.alive(id) {
			return false
		}
		p.supported = append(p.supported, id)
		return true
	})
	if !p.empty() {
		s.markDirtyLocked()
	}
	return p
}

func (s *Settings) reportPurge(p purge) {
	if p.empty() {
		return
	}
	s.cfg.logger.Log(LogEvent{
		Level:   LevelInfo,
		Message: "purged dangling asset references",
		Fields: map[string]any{
			"supported": len(p.supported),
			"remaps":    len(p.remaps),
		},
	})
	input := s.eventInput("")
	input.Metadata = map[string]any{
		"supported": idStrings(p.supported),
		"remaps":    len(p.remaps),
	}
	s.emit(activity.BuildSettingsEvent(activity.VerbSettingsPurged, input))
}

func idStrings(ids []asset.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
