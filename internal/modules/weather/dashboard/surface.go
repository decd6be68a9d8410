package dashboard

import "html/template"

type Panel int

const (
	PanelError Panel = iota
	PanelResult
	PanelForecast
	PanelSaved
)

func (p Panel) String() string {
	switch p {
	case PanelError:
		return "error"
	case PanelResult:
		return "result"
	case PanelForecast:
		return "forecast"
	case PanelSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// Surface is the UI the controller drives. Implementations must be safe for
// concurrent use.
type Surface interface {
	QueryText() string
	SetQueryText(q string)
	ClearQuery()
	SetControlsEnabled(enabled bool)
	Show(p Panel)
	Hide(p Panel)
	Render(p Panel, fragment template.HTML)
}
