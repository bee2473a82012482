package geometry

import "testing"

func TestValidateLatLon(t *testing.T) {
	if r := ValidateLatLon(45, 90); !r.Valid {
		t.Errorf("unexpected issues %v", r.Issues)
	}

	r := ValidateLatLon(95, -181.5)
	want := []string{
		"Latitude 95.0 out of range [-90.0, 90.0]",
		"Longitude -181.5 out of range [-180.0, 180.0]",
	}
	if r.Valid || len(r.Issues) != 2 {
		t.Fatalf("got %+v", r)
	}
	for i := range want {
		if r.Issues[i] != want[i] {
			t.Errorf("issue %d = %q, want %q", i, r.Issues[i], want[i])
		}
	}
}

func TestValidateUTM(t *testing.T) {
	if r := ValidateUTM(33, 500000, 4649776); !r.Valid {
		t.Errorf("unexpected issues %v", r.Issues)
	}
	r := ValidateUTM(61, 50000, -1)
	if len(r.Issues) != 3 {
		t.Fatalf("got %v", r.Issues)
	}
	if r.Issues[0] != "UTM zone 61 out of range [1, 60]" {
		t.Errorf("zone issue = %q", r.Issues[0])
	}
	if r.Issues[1] != "Easting 50000.0 out of typical range [100000, 900000]" {
		t.Errorf("easting issue = %q", r.Issues[1])
	}
}

func TestValidatePrecision(t *testing.T) {
	tests := []struct {
		v    float64
		min  int
		want bool
	}{
		{40.712776, 6, true},
		{40.71, 6, false},
		{40, 0, true},
		{40, 1, false},
	}
	for _, tt := range tests {
		if got := ValidatePrecision(tt.v, tt.min); got != tt.want {
			t.Errorf("ValidatePrecision(%v, %d) = %v", tt.v, tt.min, got)
		}
	}
}

func TestCheckOnLand(t *testing.T) {
	if !CheckOnLand(48.85, 2.35) {
		t.Error("Paris should be on land")
	}
	if CheckOnLand(-70, 0) || CheckOnLand(0, -25) || CheckOnLand(0, 170) {
		t.Error("ocean boxes not excluded")
	}
}

func TestCheckInCountry(t *testing.T) {
	if !CheckInCountry(48.85, 2.35, "fr") {
		t.Error("Paris should be in FR")
	}
	if CheckInCountry(48.85, 2.35, "JP") {
		t.Error("Paris should not be in JP")
	}
	if !CheckInCountry(0, 0, "ZZ") {
		t.Error("unknown countries pass")
	}
}
