package nn

// Class IDs in the 90 slot label map used by the TensorFlow Mask R-CNN COCO models.
// These are zero-based, so they are one less than the IDs in the TF label map.
const (
	COCO90Person       = 0
	COCO90Bicycle      = 1
	COCO90Car          = 2
	COCO90Motorcycle   = 3
	COCO90Bus          = 5
	COCO90Truck        = 7
	COCO90TrafficLight = 9
	COCO90StopSign     = 12
	COCO90Cat          = 16
	COCO90Dog          = 17
	COCO90Chair        = 61
	COCO90Couch        = 62
	COCO90DiningTable  = 66
	COCO90TV           = 71
	COCO90Laptop       = 72
)

// Placeholder name for the unused slots of the 90 slot label map
const COCOUnused = "N/A"

// Zero-based slots of the 90 slot label map which have no class
var coco90Gaps = []int{11, 25, 28, 29, 44, 65, 67, 68, 70, 82}

// COCO90Classes returns the 80 COCO classes laid out in the 90 slot label map,
// with COCOUnused in the gaps.
func COCO90Classes() []string {
	out := make([]string, 0, len(COCOClasses)+len(coco90Gaps))
	src := 0
	gap := 0
	for len(out) < len(COCOClasses)+len(coco90Gaps) {
		if gap < len(coco90Gaps) && coco90Gaps[gap] == len(out) {
			out = append(out, COCOUnused)
			gap++
		} else {
			out = append(out, COCOClasses[src])
			src++
		}
	}
	return out
}

// Default class table, for when no class file is configured
func NewCOCO90ClassTable() *ClassTable {
	return &ClassTable{Names: COCO90Classes()}
}

// The 80 COCO classes, densely packed
var COCOClasses = []string{
	"person",
	"bicycle",
	"car",
	"motorcycle",
	"airplane",
	"bus",
	"train",
	"truck",
	"boat",
	"traffic light",
	"fire hydrant",
	"stop sign",
	"parking meter",
	"bench",
	"bird",
	"cat",
	"dog",
	"horse",
	"sheep",
	"cow",
	"elephant",
	"bear",
	"zebra",
	"giraffe",
	"backpack",
	"umbrella",
	"handbag",
	"tie",
	"suitcase",
	"frisbee",
	"skis",
	"snowboard",
	"sports ball",
	"kite",
	"baseball bat",
	"baseball glove",
	"skateboard",
	"surfboard",
	"tennis racket",
	"bottle",
	"wine glass",
	"cup",
	"fork",
	"knife",
	"spoon",
	"bowl",
	"banana",
	"apple",
	"sandwich",
	"orange",
	"broccoli",
	"carrot",
	"hot dog",
	"pizza",
	"donut",
	"cake",
	"chair",
	"couch",
	"potted plant",
	"bed",
	"dining table",
	"toilet",
	"tv",
	"laptop",
	"mouse",
	"remote",
	"keyboard",
	"cell phone",
	"microwave",
	"oven",
	"toaster",
	"sink",
	"refrigerator",
	"book",
	"clock",
	"vase",
	"scissors",
	"teddy bear",
	"hair drier",
	"toothbrush",
}
