package integral

import "encoding/json"

// PlotKind tags a PlotArtifact.
type PlotKind string

const (
	// PlotImage is a static image at URL.
	PlotImage PlotKind = "image"

	// PlotInteractive is a chart description rendered client side.
	PlotInteractive PlotKind = "interactive"
)

// PlotArtifact is the chart attached to a result. Image plots only set URL;
// interactive plots only set Data, Layout and Config.
type PlotArtifact struct {
	Kind   PlotKind        `json:"kind"`
	URL    string          `json:"url,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Layout json.RawMessage `json:"layout,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// ImageRef returns an image plot.
func ImageRef(url string) *PlotArtifact {
	return &PlotArtifact{Kind: PlotImage, URL: url}
}

// Result is what a successful evaluation shows.
type Result struct {
	// Value is nil when the service sent no number.
	Value *float64      `json:"value"`
	Plot  *PlotArtifact `json:"plot,omitempty"`
	Latex string        `json:"latex,omitempty"`

	// Warning is set when the service reported a non-fatal problem with the value.
	Warning *AppError `json:"warning,omitempty"`
}

// HasValue reports whether a numeric value is present.
func (r Result) HasValue() bool {
	return r.Value != nil
}
