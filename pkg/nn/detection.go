package nn

// Contour is a closed polygon, in pixel coordinates relative to the top-left corner
// of the box that owns it.
type Contour []Point

// ObjectDetection is an object instance that the Mask R-CNN network has found in an image,
// together with its binarized mask outline and (once fused with a depth frame) its distance.
// A fresh slice of these is created for every frame. Nothing is carried over between frames.
type ObjectDetection struct {
	Class      int       `json:"class"`
	Confidence float32   `json:"confidence"`
	Box        Rect      `json:"box"`      // Full frame pixel coordinates
	Center     Point     `json:"center"`   // Box midpoint, not the mask's center of mass
	Contours   []Contour `json:"contours"` // External contours of the mask, box-local
	Depth      float64   `json:"depth"`    // Raw depth units (usually mm). Zero until fused.
	HasDepth   bool      `json:"hasDepth"`
}

// Translate a box-local contour point into full frame coordinates
func (d *ObjectDetection) FramePoint(p Point) Point {
	return Point{X: p.X + d.Box.X, Y: p.Y + d.Box.Y}
}

// Total number of vertices over all contours
func (d *ObjectDetection) NumContourPoints() int {
	n := 0
	for _, c := range d.Contours {
		n += len(c)
	}
	return n
}

// FrameDetections holds all of the objects found in a single frame
type FrameDetections struct {
	FrameIndex  int               `json:"frameIndex"`
	Timestamp   float64           `json:"timestamp"` // Milliseconds, as reported by the recording
	ImageWidth  int               `json:"imageWidth"`
	ImageHeight int               `json:"imageHeight"`
	Objects     []ObjectDetection `json:"objects"`
}
