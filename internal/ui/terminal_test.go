package ui

import "testing"

func TestShouldUseColor(t *testing.T) {
	for _, tc := range []struct {
		name     string
		noColor  string
		force    string
		clicolor string
		want     bool
	}{
		// Test runners have no TTY on stdout, so the default is off.
		{"Default", "", "", "", false},
		{"Forced", "", "1", "", true},
		{"NoColorBeatsForce", "1", "1", "", false},
		{"CliColorOff", "", "", "0", false},
		{"ForceBeatsCliColorOff", "", "1", "0", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tc.noColor)
			t.Setenv("CLICOLOR_FORCE", tc.force)
			t.Setenv("CLICOLOR", tc.clicolor)
			if got := ShouldUseColor(); got != tc.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tc.want)
			}
		})
	}
}
