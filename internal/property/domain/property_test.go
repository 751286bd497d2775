package property

import (
	"testing"
	"time"
)

func TestPropertyValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       Property
		wantErr bool
	}{
		{name: "valid", p: Property{ID: "p1", Name: "Loft", Timezone: "Europe/Lisbon", PricePer100WhCents: 3}},
		{name: "no timezone", p: Property{ID: "p1", Name: "Loft"}},
		{name: "missing id", p: Property{Name: "Loft"}, wantErr: true},
		{name: "missing name", p: Property{ID: "p1"}, wantErr: true},
		{name: "negative price", p: Property{ID: "p1", Name: "Loft", PricePer100WhCents: -1}, wantErr: true},
		{name: "bad timezone", p: Property{ID: "p1", Name: "Loft", Timezone: "Mars/Olympus"}, wantErr: true},
	}
	for _, tc := range cases {
		err := tc.p.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestPropertyLocation(t *testing.T) {
	if loc := (Property{}).Location(); loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", loc)
	}
	if loc := (Property{Timezone: "Europe/Lisbon"}).Location(); loc.String() != "Europe/Lisbon" {
		t.Fatalf("expected Europe/Lisbon, got %v", loc)
	}
}
