package icon

import "strings"

// Default is used when nothing in the name matches.
const Default = "checkbox-marked-circle-outline"

// Suggest picks an icon name for a location or task from its name. It
// matches case-insensitively: exact names first, then keywords contained
// in the name.
func Suggest(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Default
	}

	if icon, ok := exactMatch[n]; ok {
		return icon
	}

	for _, entry := range keywordMatches {
		if strings.Contains(n, entry.keyword) {
			return entry.icon
		}
	}

	return Default
}

var exactMatch = map[string]string{
	// Locations
	"kitchen":     "silverware-fork-knife",
	"bathroom":    "shower",
	"living room": "sofa",
	"bedroom":     "bed",
	"garage":      "garage",
	"garden":      "flower",
	"yard":        "grass",
	"office":      "desk",
	"laundry":     "washing-machine",
	"hallway":     "door",
	"attic":       "home-roof",
	"basement":    "stairs-down",

	// Tasks
	"wash dishes":     "dishwasher",
	"wipe counters":   "spray-bottle",
	"mop floor":       "broom",
	"scrub toilet":    "toilet",
	"clean mirror":    "mirror-rectangle",
	"vacuum carpet":   "vacuum",
	"dust shelves":    "bookshelf",
	"make bed":        "bed-outline",
	"organize closet": "wardrobe-outline",
}

// keywordMatches is ordered so that more specific keywords win.
var keywordMatches = []struct {
	keyword string
	icon    string
}{
	{"dishwasher", "dishwasher"},
	{"dish", "dishwasher"},
	{"counter", "spray-bottle"},
	{"oven", "stove"},
	{"stove", "stove"},
	{"fridge", "fridge-outline"},
	{"mop", "broom"},
	{"sweep", "broom"},
	{"broom", "broom"},
	{"vacuum", "vacuum"},
	{"toilet", "toilet"},
	{"shower", "shower-head"},
	{"bath", "bathtub-outline"},
	{"mirror", "mirror-rectangle"},
	{"window", "window-closed-variant"},
	{"dust", "feather"},
	{"shelf", "bookshelf"},
	{"shelves", "bookshelf"},
	{"bed", "bed-outline"},
	{"sheet", "bed-outline"},
	{"closet", "wardrobe-outline"},
	{"wardrobe", "wardrobe-outline"},
	{"laundry", "washing-machine"},
	{"wash", "washing-machine"},
	{"trash", "trash-can-outline"},
	{"garbage", "trash-can-outline"},
	{"recycl", "recycle"},
	{"plant", "sprout"},
	{"water", "watering-can"},
	{"lawn", "mower"},
	{"mow", "mower"},
	{"weed", "flower"},
	{"car", "car"},
	{"pet", "paw"},
	{"litter", "paw"},
	{"dog", "dog"},
	{"cat", "cat"},
	{"kitchen", "silverware-fork-knife"},
	{"bath", "shower"},
	{"bedroom", "bed"},
	{"room", "sofa"},
}
