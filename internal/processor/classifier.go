package processor

// Window is a calibrated tolerance rectangle for the origin of a bounding box.
// Bounds are exclusive.
type Window struct {
	Label Label
	XMin  float64
	XMax  float64
	YMin  float64
	YMax  float64
}

// Contains reports whether the box origin lies strictly inside the window.
func (w Window) Contains(box BoundingBox) bool {
	return box.X > w.XMin && box.X < w.XMax && box.Y > w.YMin && box.Y < w.YMax
}

// DefaultWindows is the reference calibration of the result screen, in
// priority order.
var DefaultWindows = []Window{
	{Label: LabelTitle, XMin: 0.19, XMax: 0.20, YMin: 0.94, YMax: 0.95},
	{Label: LabelLevel, XMin: 0.30, XMax: 0.31, YMin: 0.89, YMax: 0.90},
}

// RegionClassifier labels observations by position only
type RegionClassifier struct {
	windows []Window
}

// NewRegionClassifier creates a classifier over windows, falling back to
// DefaultWindows when none are given.
func NewRegionClassifier(windows []Window) *RegionClassifier {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	cp := make([]Window, len(windows))
	copy(cp, windows)
	return &RegionClassifier{windows: cp}
}

// Classify returns the label of the first window containing box.
func (c *RegionClassifier) Classify(box BoundingBox) Label {
	for _, w := range c.windows {
		if w.Contains(box) {
			return w.Label
		}
	}
	return LabelUnlabeled
}

// LabelAll returns labeled copies of observations, preserving order.
func (c *RegionClassifier) LabelAll(observations []TextObservation) []TextObservation {
	out := make([]TextObservation, 0, len(observations))
	for _, obs := range observations {
		out = append(out, obs.WithLabel(c.Classify(obs.BoundingBox)))
	}
	return out
}
