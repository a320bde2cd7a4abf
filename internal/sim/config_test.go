package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timestep", func(c *Config) { c.TimeStep = 0 }},
		{"negative mass", func(c *Config) { c.MassKg = -1 }},
		{"zero iterations", func(c *Config) { c.ConstraintIterations = 0 }},
		{"redline below idle", func(c *Config) { c.RedlineRPM = c.IdleRPM - 100 }},
		{"nonzero neutral ratio", func(c *Config) { c.GearRatios[gearNeutral] = 1.0 }},
		{"positive reverse ratio", func(c *Config) { c.GearRatios[gearReverse] = 3.0 }},
		{"missing gears", func(c *Config) { c.GearRatios = []float64{-3.4, 0} }},
		{"short torque curve", func(c *Config) { c.TorqueCurve = c.TorqueCurve[:1] }},
		{"non-ascending torque curve", func(c *Config) {
			c.TorqueCurve[2].RPM = c.TorqueCurve[1].RPM
		}},
		{"restitution above one", func(c *Config) { c.Restitution = 1.5 }},
		{"negative restitution", func(c *Config) { c.Restitution = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			// Clone the slices the mutators touch.
			cfg.GearRatios = append([]float64(nil), cfg.GearRatios...)
			cfg.TorqueCurve = append([]CurvePoint(nil), cfg.TorqueCurve...)
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "car.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mass_kg": 1500, "brake_force": 12000}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, cfg.MassKg)
	assert.Equal(t, 12000.0, cfg.BrakeForce)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultConfig().Wheelbase, cfg.Wheelbase)
	assert.Equal(t, DefaultConfig().RedlineRPM, cfg.RedlineRPM)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mass_kg": `), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestTorqueFractionInterpolation(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.0, cfg.torqueFraction(0))
	assert.Equal(t, 0.49, cfg.torqueFraction(800))
	// Midway between the 800 and 1000 breakpoints.
	assert.InDelta(t, 0.585, cfg.torqueFraction(900), 1e-9)
	assert.Equal(t, 1.0, cfg.torqueFraction(4500))
	// Beyond the last breakpoint the curve holds its final value.
	assert.Equal(t, 0.88, cfg.torqueFraction(9000))
}
