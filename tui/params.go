// ABOUTME: Parameter manager for build configuration tuning
// ABOUTME: Handles parameter value adjustments with boundary checking

package tui

import "playlist-builder/config"

// Parameter names shown in the parameter panel
const (
	paramTarget      = "Target Minutes"
	paramDepth       = "Depth Fraction"
	paramSteps       = "Steps Fraction"
	paramPasses      = "Passes"
	paramTemperature = "Temperature Seconds"
)

// Parameter represents a tunable build parameter with constraints
type Parameter struct {
	Name     string
	Value    *float64 // Pointer to actual config field
	IntValue *int     // For integer parameters
	Min      float64
	Max      float64
	Step     float64
	IsInt    bool
}

// buildParams returns the tunable parameters bound to cfg's fields
func buildParams(cfg *config.BuildConfig) []Parameter {
	return []Parameter{
		{paramTarget, &cfg.TargetMinutes, nil, 1, 600, 1, false},
		{paramDepth, &cfg.DepthFraction, nil, 0, 1, 0.05, false},
		{paramSteps, &cfg.StepsFraction, nil, 0, 1, 0.05, false},
		{paramPasses, nil, &cfg.Passes, 0, 20, 1, true},
		{paramTemperature, &cfg.TemperatureSeconds, nil, 0, 600, 5, false},
	}
}

// ParamManager manages parameter selection and adjustments
type ParamManager struct {
	params        []Parameter
	selectedIndex int
}

// NewParamManager creates a new parameter manager
func NewParamManager(params []Parameter) *ParamManager {
	return &ParamManager{
		params:        params,
		selectedIndex: 0,
	}
}

// Selected returns the index of the currently selected parameter
func (pm *ParamManager) Selected() int {
	return pm.selectedIndex
}

// SetSelected sets the selected parameter index
func (pm *ParamManager) SetSelected(index int) {
	if index >= 0 && index < len(pm.params) {
		pm.selectedIndex = index
	}
}

// SelectNext moves selection to the next parameter
func (pm *ParamManager) SelectNext() {
	if pm.selectedIndex < len(pm.params)-1 {
		pm.selectedIndex++
	}
}

// SelectPrevious moves selection to the previous parameter
func (pm *ParamManager) SelectPrevious() {
	if pm.selectedIndex > 0 {
		pm.selectedIndex--
	}
}

// Increase increases the selected parameter value
// Returns true if the value was changed
func (pm *ParamManager) Increase() bool {
	if pm.selectedIndex >= len(pm.params) {
		return false
	}

	param := &pm.params[pm.selectedIndex]
	if param.IsInt {
		newVal := *param.IntValue + int(param.Step)
		if float64(newVal) <= param.Max {
			*param.IntValue = newVal

			return true
		}

		return false
	}

	newVal := *param.Value + param.Step
	// Clamp to max if we're very close (handles floating point precision)
	if newVal > param.Max && newVal <= param.Max+0.0001 {
		newVal = param.Max
	}

	if newVal <= param.Max {
		*param.Value = newVal

		return true
	}

	return false
}

// Decrease decreases the selected parameter value
// Returns true if the value was changed
func (pm *ParamManager) Decrease() bool {
	if pm.selectedIndex >= len(pm.params) {
		return false
	}

	param := &pm.params[pm.selectedIndex]
	if param.IsInt {
		newVal := *param.IntValue - int(param.Step)
		if float64(newVal) >= param.Min {
			*param.IntValue = newVal

			return true
		}

		return false
	}

	newVal := *param.Value - param.Step
	// Clamp to min if we're very close (handles floating point precision)
	if newVal < param.Min && newVal >= param.Min-0.0001 {
		newVal = param.Min
	}

	if newVal >= param.Min {
		*param.Value = newVal

		return true
	}

	return false
}

// ResetToDefaults resets all parameters to their default values
// Uses name-based lookup to avoid fragile array indexing
func (pm *ParamManager) ResetToDefaults(defaults config.BuildConfig) {
	for i := range pm.params {
		p := &pm.params[i]

		switch p.Name {
		case paramTarget:
			*p.Value = defaults.TargetMinutes
		case paramDepth:
			*p.Value = defaults.DepthFraction
		case paramSteps:
			*p.Value = defaults.StepsFraction
		case paramPasses:
			*p.IntValue = defaults.Passes
		case paramTemperature:
			*p.Value = defaults.TemperatureSeconds
		}
	}
}

// Get returns the parameter at the given index
func (pm *ParamManager) Get(index int) *Parameter {
	if index >= 0 && index < len(pm.params) {
		return &pm.params[index]
	}

	return nil
}

// GetSelected returns the currently selected parameter
func (pm *ParamManager) GetSelected() *Parameter {
	return pm.Get(pm.selectedIndex)
}

// Len returns the number of parameters
func (pm *ParamManager) Len() int {
	return len(pm.params)
}

// All returns all parameters (for rendering)
func (pm *ParamManager) All() []Parameter {
	return pm.params
}
