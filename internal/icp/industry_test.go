package icp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIndustry(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "Unknown"},
		{"   ", "Unknown"},
		{"computer_software", "Computer Software"},
		{"information_technology_and_services", "Information Technology & Services"},
		{"hospital_and_health_care", "Hospital & Health Care"},
		{"Financial Services", "Financial Services"},
		{"e_learning", "E-Learning"},
		// Unmapped values fall through to title case.
		{"space_tourism", "Space Tourism"},
		{"wine_and_spirits", "Wine & Spirits"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeIndustry(tt.raw), "raw %q", tt.raw)
	}
}

func TestNormalizeIndustry_Idempotent(t *testing.T) {
	for _, raw := range []string{"computer_software", "oil_and_energy", "space_tourism"} {
		once := NormalizeIndustry(raw)
		assert.Equal(t, once, NormalizeIndustry(once), "raw %q", raw)
	}
}
