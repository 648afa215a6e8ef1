package director

// Keyframe represents a camera position at a specific time
type Keyframe struct {
	Time  float64   `yaml:"time"`  // Time offset in seconds
	Focus string    `yaml:"focus"` // Description of focus region
	Rect  Rectangle `yaml:"rect"`  // Visible viewport
	Zoom  float64   `yaml:"zoom"`  // Zoom level (1.0 = no zoom)
}

// Rectangle represents a bounding box
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Center returns the rectangle center in pixels.
func (r Rectangle) Center() (float64, float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

// FullFrame returns the keyframe that shows the whole w x h frame.
func FullFrame(t float64, w, h int) Keyframe {
	return Keyframe{Time: t, Focus: "full_view", Rect: Rectangle{W: w, H: h}, Zoom: 1.0}
}
