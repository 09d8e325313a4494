package icon

import "testing"

func TestSuggest(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Kitchen", "silverware-fork-knife"},
		{"  living room ", "sofa"},
		{"Wash dishes", "dishwasher"},
		{"Empty the dishwasher", "dishwasher"},
		{"Take out trash", "trash-can-outline"},
		{"Water the plants", "sprout"},
		{"Guest bedroom", "bed-outline"},
		{"Kids' room", "sofa"},
		{"Do taxes", Default},
		{"", Default},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suggest(tt.name); got != tt.want {
				t.Errorf("Suggest(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
