package luxtronik

import (
	"math"
	"time"
)

type kind int

const (
	kindRaw kind = iota
	kindTenth
	kindHundredth
	kindBool
	kindHours
)

type field struct {
	index int
	kind  kind
}

// calculations maps named measurement fields to their index in the 3004 block.
var calculations = map[string]field{
	"temperature_supply":          {10, kindTenth},
	"temperature_return":          {11, kindTenth},
	"temperature_target_return":   {12, kindTenth},
	"temperature_hot_gas":         {14, kindTenth},
	"temperature_outside":         {15, kindTenth},
	"temperature_outside_avg":     {16, kindTenth},
	"temperature_hot_water":       {17, kindTenth},
	"temperature_heat_source_in":  {19, kindTenth},
	"temperature_heat_source_out": {20, kindTenth},
	"AVout":                       {37, kindBool},
	"BUPout":                      {38, kindBool},
	"HUPout":                      {39, kindBool},
	"VBOout":                      {43, kindBool},
	"compressor1":                 {44, kindBool},
	"ZUPout":                      {47, kindBool},
	"hours_compressor1":           {56, kindHours},
	"starts_compressor1":          {57, kindRaw},
	"hours_heatpump":              {63, kindHours},
	"hours_heating":               {64, kindHours},
	"hours_hot_water":             {65, kindHours},
	"opStateHeating":              {80, kindRaw},
	"energy_heating":              {151, kindTenth},
	"energy_hot_water":            {152, kindTenth},
	"HDin_pressure":               {180, kindHundredth},
	"NDin_pressure":               {181, kindHundredth},
}

// parameters maps named settings to their index in the 3003 block.
var parameters = map[string]field{
	"heating_target_temperature":    {1, kindTenth},
	"warmwater_target_temperature":  {2, kindTenth},
	"heating_operation_mode":        {3, kindRaw},
	"warmwater_operation_mode":      {4, kindRaw},
	"heating_curve_end_point":       {11, kindTenth},
	"heating_curve_parallel_offset": {12, kindTenth},
	"deltaHeatingReduction":         {13, kindTenth},
}

// Error log slots: five timestamps followed by five codes.
const (
	errorTimestampBase = 95
	errorCodeBase      = 100
	errorSlots         = 5
)

// Reading holds the named raw fields of one read. Values come from the
// calculation block, Parameters from the parameter block. A field missing
// from a short block is absent from the map.
type Reading struct {
	Values     map[string]any
	Parameters map[string]any
}

// ErrorRecord is one entry of the controller's error log.
type ErrorRecord struct {
	Timestamp time.Time
	Code      int
}

func scale(raw int32, k kind) any {
	switch k {
	case kindTenth:
		return float64(raw) / 10
	case kindHundredth:
		return float64(raw) / 100
	case kindBool:
		return raw != 0
	case kindHours:
		return float64(raw) / 3600
	default:
		return int(raw)
	}
}

func unscale(v float64, k kind) int32 {
	switch k {
	case kindTenth:
		return int32(math.Round(v * 10))
	case kindHundredth:
		return int32(math.Round(v * 100))
	case kindHours:
		return int32(math.Round(v * 3600))
	default:
		return int32(math.Round(v))
	}
}

func decodeBlock(table map[string]field, block []int32) map[string]any {
	out := make(map[string]any, len(table))
	for name, f := range table {
		if f.index < len(block) {
			out[name] = scale(block[f.index], f.kind)
		}
	}
	return out
}

// Decode turns raw blocks into named fields.
func Decode(calcs, params []int32) Reading {
	values := decodeBlock(calculations, calcs)

	var errs []ErrorRecord
	for i := 0; i < errorSlots; i++ {
		ti, ci := errorTimestampBase+i, errorCodeBase+i
		if ci >= len(calcs) || calcs[ci] == 0 {
			continue
		}
		rec := ErrorRecord{Code: int(calcs[ci])}
		if ti < len(calcs) && calcs[ti] > 0 {
			rec.Timestamp = time.Unix(int64(calcs[ti]), 0).UTC()
		}
		errs = append(errs, rec)
	}
	if len(errs) > 0 {
		values["errors"] = errs
	}

	return Reading{Values: values, Parameters: decodeBlock(parameters, params)}
}
