package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturewave/showcase/sim/device"
)

func TestBuildProfileReport(t *testing.T) {
	tests := []struct {
		name      string
		section   DeviceSection
		tier      device.Tier
		gpu       string
		dedicated int
		embedded  int
	}{
		{"iphone", DeviceSection{UserAgent: "iPhone", Cores: 4, MemoryGB: 2, GPUExtensions: 30}, device.Low, "ok", 150, 15},
		{"mid desktop", DeviceSection{UserAgent: "X11", Cores: 4, MemoryGB: 16, GPUExtensions: 30}, device.Medium, "ok", 300, 30},
		{"big desktop", DeviceSection{UserAgent: "X11", Cores: 16, MemoryGB: 32, GPUExtensions: 30}, device.High, "ok", 400, 80},
		{"weak gpu", DeviceSection{UserAgent: "X11", Cores: 16, MemoryGB: 32, GPUExtensions: 5}, device.Low, "weak", 150, 15},
		{"no context", DeviceSection{UserAgent: "X11", Cores: 16, MemoryGB: 32, NoGPUContext: true}, device.Low, device.ErrNoContext.Error(), 150, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := buildProfileReport(tt.section.Host())
			assert.Equal(t, tt.tier, r.Profile.Tier)
			assert.Equal(t, tt.tier.String(), r.Tier)
			assert.Equal(t, tt.gpu, r.GPU)
			assert.Equal(t, tt.dedicated, r.Budgets["dedicated"])
			assert.Equal(t, tt.embedded, r.Budgets["embedded"])
		})
	}
}

func TestProfileReport_Print(t *testing.T) {
	var buf bytes.Buffer
	r := buildProfileReport(DeviceSection{UserAgent: "X11", Cores: 8, MemoryGB: 8, GPUExtensions: 24}.Host())
	require.NoError(t, r.Print(&buf))
	assert.Contains(t, buf.String(), `"tier": "high"`)
	assert.Contains(t, buf.String(), `"particle_budgets"`)
}
