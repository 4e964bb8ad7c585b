// ABOUTME: Tests for ParamManager parameter adjustment and navigation
// ABOUTME: Verifies boundary checking, integer/float handling, and reset functionality

package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist-builder/config"
)

func newTestParamManager(t *testing.T) (*ParamManager, *config.BuildConfig) {
	t.Helper()

	cfg := config.DefaultConfig()

	return NewParamManager(buildParams(&cfg)), &cfg
}

func selectParam(t *testing.T, pm *ParamManager, name string) *Parameter {
	t.Helper()

	for i, p := range pm.All() {
		if p.Name == name {
			pm.SetSelected(i)

			return pm.Get(i)
		}
	}

	require.Failf(t, "missing parameter", "%q", name)

	return nil
}

func TestParamManager_Selection(t *testing.T) {
	pm, _ := newTestParamManager(t)
	last := pm.Len() - 1

	pm.SelectPrevious()
	assert.Equal(t, 0, pm.Selected(), "previous at start stays put")

	pm.SelectNext()
	assert.Equal(t, 1, pm.Selected())

	pm.SetSelected(last)
	pm.SelectNext()
	assert.Equal(t, last, pm.Selected(), "next at end stays put")

	pm.SetSelected(-1)
	assert.Equal(t, last, pm.Selected())

	pm.SetSelected(pm.Len())
	assert.Equal(t, last, pm.Selected())

	assert.Nil(t, pm.Get(pm.Len()))
}

func TestParamManager_WritesThroughToConfig(t *testing.T) {
	pm, cfg := newTestParamManager(t)

	selectParam(t, pm, paramTarget)
	require.True(t, pm.Increase())
	assert.InDelta(t, 61.0, cfg.TargetMinutes, 1e-9)

	selectParam(t, pm, paramPasses)
	require.True(t, pm.Decrease())
	assert.Equal(t, 1, cfg.Passes)
}

func TestParamManager_FloatBounds(t *testing.T) {
	pm, cfg := newTestParamManager(t)

	selectParam(t, pm, paramDepth)
	require.InDelta(t, 1.0, cfg.DepthFraction, 1e-9)
	assert.False(t, pm.Increase(), "already at max")

	// Walking down in 0.05 steps lands exactly on the minimum
	steps := 0
	for pm.Decrease() {
		steps++
	}

	assert.Equal(t, 20, steps)
	assert.InDelta(t, 0.0, cfg.DepthFraction, 1e-9)
	assert.GreaterOrEqual(t, cfg.DepthFraction, 0.0)
}

func TestParamManager_FloatClampNearMax(t *testing.T) {
	pm, cfg := newTestParamManager(t)

	selectParam(t, pm, paramSteps)
	cfg.StepsFraction = 0.95 + 0.00001

	require.True(t, pm.Increase())
	assert.InDelta(t, 1.0, cfg.StepsFraction, 1e-9)
	assert.LessOrEqual(t, cfg.StepsFraction, 1.0)
}

func TestParamManager_IntBounds(t *testing.T) {
	pm, cfg := newTestParamManager(t)

	p := selectParam(t, pm, paramPasses)
	cfg.Passes = int(p.Max)
	assert.False(t, pm.Increase())

	cfg.Passes = 0
	assert.False(t, pm.Decrease())
	assert.Equal(t, 0, cfg.Passes)
}

func TestParamManager_ResetToDefaults(t *testing.T) {
	pm, cfg := newTestParamManager(t)

	cfg.TargetMinutes = 5
	cfg.DepthFraction = 0.1
	cfg.StepsFraction = 0.2
	cfg.Passes = 9
	cfg.TemperatureSeconds = 120

	defaults := config.DefaultConfig()
	pm.ResetToDefaults(defaults)

	assert.InDelta(t, defaults.TargetMinutes, cfg.TargetMinutes, 1e-9)
	assert.InDelta(t, defaults.DepthFraction, cfg.DepthFraction, 1e-9)
	assert.InDelta(t, defaults.StepsFraction, cfg.StepsFraction, 1e-9)
	assert.Equal(t, defaults.Passes, cfg.Passes)
	assert.InDelta(t, defaults.TemperatureSeconds, cfg.TemperatureSeconds, 1e-9)
}
