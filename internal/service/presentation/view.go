// Package presentation turns tracker state into what the page draws.
package presentation

import (
	"fmt"
	"strconv"

	"fishfollow/internal/service/tracking"
)

// MirrorClass is the CSS class that flips the image horizontally.
const MirrorClass = "mirror"

type Config struct {
	ImageURL           string
	ImageWidth         string
	TransitionDuration string
}

// View is the rendered state of the tracked image.
type View struct {
	Top                float64 `json:"top"`
	Left               float64 `json:"left"`
	Mirror             bool    `json:"mirror"`
	TransitionDuration string  `json:"transitionDuration"`
	ImageURL           string  `json:"imageUrl"`
	ImageWidth         string  `json:"imageWidth"`
	Style              string  `json:"style"`
	ClassName          string  `json:"className"`
}

func Render(state tracking.State, cfg Config) View {
	v := View{
		Top:                state.Position.Top,
		Left:               state.Position.Left,
		Mirror:             state.Mirrored(),
		TransitionDuration: cfg.TransitionDuration,
		ImageURL:           cfg.ImageURL,
		ImageWidth:         cfg.ImageWidth,
	}
	v.Style = v.style()
	if v.Mirror {
		v.ClassName = MirrorClass
	}
	return v
}

func (v View) style() string {
	return fmt.Sprintf("position: absolute; transition-duration: %s; top: %s%%; left: %s%%;",
		v.TransitionDuration, percent(v.Top), percent(v.Left))
}

func percent(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
