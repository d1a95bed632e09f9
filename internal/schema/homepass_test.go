package schema

import "testing"

func TestFieldCount(t *testing.T) {
	if got := FieldCount(); got != 26 {
		t.Errorf("FieldCount() = %d, want %d", got, 26)
	}
}

func TestFieldOrder(t *testing.T) {
	// Order is a file format contract; spot-check the anchors.
	checks := []struct {
		index int
		want  string
	}{
		{0, "HOMEPASS_ID"},
		{1, "CLUSTER_NAME"},
		{13, "BUILDING_LATITUDE"},
		{14, "BUILDING_LONGITUDE"},
		{25, "Clamp_Hook_ID"},
	}
	for _, c := range checks {
		if Fields[c.index] != c.want {
			t.Errorf("Fields[%d] = %q, want %q", c.index, Fields[c.index], c.want)
		}
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"HOMEPASS_ID", true},
		{"Category_BizPass", true},
		{"Clamp_Hook_ID", true},
		{"homepass_id", false}, // case-sensitive
		{"LATITUDE", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Contains(tt.name); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHeaderIsCopy(t *testing.T) {
	h := Header()
	if len(h) != len(Fields) {
		t.Fatalf("Header() length = %d, want %d", len(h), len(Fields))
	}
	h[0] = "mutated"
	if Fields[0] != "HOMEPASS_ID" {
		t.Error("mutating Header() result changed Fields")
	}
}
