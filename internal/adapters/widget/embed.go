package widget

// Frame is a sandboxed iframe pointing at the widget loader. Pages render it
// as an element; no provider markup or script is injected into the host page.
type Frame struct {
	Src           string `json:"src"`
	Title         string `json:"title"`
	Sandbox       string `json:"sandbox"`
	MinHeight     int    `json:"min_height"`
	MessageOrigin string `json:"message_origin"`
	TimeoutMS     int64  `json:"timeout_ms"`
}

// Link is a fallback call-to-action.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Embeddable is anything a page can render as a widget with a fallback.
type Embeddable interface {
	Frame() Frame
	Fallback() []Link
}

const sandbox = "allow-scripts allow-same-origin allow-forms allow-popups allow-popups-to-escape-sandbox"

// Widget binds a config to venue names for the fallback links.
type Widget struct {
	Config Config
	// Venues maps a restaurant id to its display name.
	Venues map[string]string
}

// Frame implements Embeddable.
func (w Widget) Frame() Frame {
	return Frame{
		Src:           w.Config.LoaderURL(),
		Title:         "Reserve a table",
		Sandbox:       sandbox,
		MinHeight:     490,
		MessageOrigin: w.Config.MessageOrigin,
		TimeoutMS:     w.Config.LoadTimeout.Milliseconds(),
	}
}

// Fallback implements Embeddable.
func (w Widget) Fallback() []Link {
	links := make([]Link, 0, len(w.Config.RestaurantIDs))
	for _, id := range w.Config.RestaurantIDs {
		label := "Book online"
		if name, ok := w.Venues[id]; ok && name != "" {
			label = "Book " + name
		}
		links = append(links, Link{Label: label, URL: w.Config.FallbackURL(id)})
	}
	return links
}
