package view

import "GroceryLens/internal/model"

// Tone is the color family a value is shown in.
type Tone string

const (
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneNeutral Tone = "neutral"
)

// TrendStyle is how a comparison trend is drawn.
type TrendStyle struct {
	Glyph string
	Tone  Tone
}

// TrendStyleFor maps a trend to its glyph and tone. Anything that is not
// exactly "up" or "down" is drawn neutral.
func TrendStyleFor(t model.Trend) TrendStyle {
	switch t {
	case model.TrendUp:
		return TrendStyle{Glyph: "↑", Tone: ToneWarning}
	case model.TrendDown:
		return TrendStyle{Glyph: "↓", Tone: ToneSuccess}
	default:
		return TrendStyle{Glyph: "→", Tone: ToneNeutral}
	}
}

// Marker is the emoji used for a tone in chat output.
func (t Tone) Marker() string {
	switch t {
	case ToneWarning:
		return "🔴"
	case ToneSuccess:
		return "🟢"
	default:
		return "⚪"
	}
}
