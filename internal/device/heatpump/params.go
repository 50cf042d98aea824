package heatpump

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownParameter is returned for parameters outside the write whitelist.
var ErrUnknownParameter = errors.New("parameter not writable")

// ParamRange is the inclusive range accepted for a writable parameter.
type ParamRange struct {
	Name string
	Min  float64
	Max  float64
}

// WritableParams is the write whitelist, in the order it is reported to clients.
var WritableParams = []ParamRange{
	{Name: "heating_target_temperature", Min: -10, Max: 10},
	{Name: "warmwater_target_temperature", Min: 30, Max: 65},
	{Name: "heating_operation_mode", Min: 0, Max: 4},
	{Name: "warmwater_operation_mode", Min: 0, Max: 4},
	{Name: "heating_curve_end_point", Min: 20, Max: 70},
	{Name: "heating_curve_parallel_offset", Min: 5, Max: 35},
	{Name: "deltaHeatingReduction", Min: -15, Max: 10},
}

// RangeError reports a value outside a parameter's range. Values are never clamped.
type RangeError struct {
	ParamRange
	Received float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %g out of range [%g, %g] for %q", e.Received, e.Min, e.Max, e.Name)
}

// AllowedParams lists the writable parameter names.
func AllowedParams() []string {
	names := make([]string, 0, len(WritableParams))
	for _, p := range WritableParams {
		names = append(names, p.Name)
	}
	return names
}

func lookupParam(name string) (ParamRange, bool) {
	for _, p := range WritableParams {
		if p.Name == name {
			return p, true
		}
	}
	return ParamRange{}, false
}

// Validate checks name against the whitelist and value against its range.
func Validate(name string, value float64) error {
	p, ok := lookupParam(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if math.IsNaN(value) || value < p.Min || value > p.Max {
		return &RangeError{ParamRange: p, Received: value}
	}
	return nil
}
