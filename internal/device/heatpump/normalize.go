package heatpump

import (
	"fmt"
	"strconv"
	"time"

	"geothermal_monitor/internal/device/luxtronik"
	"geothermal_monitor/internal/models"
)

// RawReading is the named-field shape produced by the wire driver.
type RawReading = luxtronik.Reading

const maxErrors = 5

var stateModes = map[int]string{
	0: models.ModeHeating,
	1: models.ModeHotWater,
	2: models.ModePool,
	3: models.ModeDefrost,
	4: models.ModeIdle,
	5: models.ModeError,
	6: models.ModeCooling,
}

// ModeFromState maps the controller's operating state integer to its label.
func ModeFromState(state int) string {
	if m, ok := stateModes[state]; ok {
		return m
	}
	return models.ModeUndefined
}

func isOn(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t == "on"
	case bool:
		return t
	default:
		f, ok := toFloat(t)
		return ok && f != 0
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// number returns the first key holding a number, or 0.
func number(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := toFloat(m[k]); ok {
			return f
		}
	}
	return 0
}

func text(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func operatingMode(values map[string]any) string {
	if s := text(values, "heatpump_state_string", "opStateHeatingString"); s != "" {
		return s
	}
	if f, ok := toFloat(values["opStateHeating"]); ok {
		return ModeFromState(int(f))
	}
	return models.ModeUndefined
}

func errorEntry(code, description string, ts time.Time, now time.Time) models.ErrorEntry {
	if ts.IsZero() {
		ts = now
	}
	if description == "" {
		description = "Erreur " + code
	}
	return models.ErrorEntry{Timestamp: ts.UTC().Format(time.RFC3339), Code: code, Description: description}
}

func parseErrors(v any, now time.Time) []models.ErrorEntry {
	out := []models.ErrorEntry{}
	switch list := v.(type) {
	case []luxtronik.ErrorRecord:
		for _, rec := range list {
			if len(out) == maxErrors {
				break
			}
			out = append(out, errorEntry(strconv.Itoa(rec.Code), "", rec.Timestamp, now))
		}
	case []any:
		for _, item := range list {
			if len(out) == maxErrors {
				break
			}
			switch e := item.(type) {
			case nil:
			case map[string]any:
				code := fmt.Sprint(e["code"])
				if e["code"] == nil {
					code = ""
				}
				var ts time.Time
				if s, ok := e["timestamp"].(string); ok {
					ts, _ = time.Parse(time.RFC3339, s)
				}
				out = append(out, errorEntry(code, text(e, "message", "description"), ts, now))
			default:
				out = append(out, errorEntry(fmt.Sprint(e), "", time.Time{}, now))
			}
		}
	}
	return out
}

// Normalize converts a raw reading into a snapshot. Missing numbers default to 0.
func Normalize(raw RawReading, now time.Time) *models.HeatPumpSnapshot {
	values := raw.Values
	if values == nil {
		values = map[string]any{}
	}
	params := raw.Parameters
	if params == nil {
		params = map[string]any{}
	}

	heatingEnergy := number(values, "energy_heating")
	hotWaterEnergy := number(values, "energy_hot_water")

	return &models.HeatPumpSnapshot{
		Timestamp: now,
		Connected: true,
		Temperatures: models.Temperatures{
			Outdoor:             number(values, "temperature_outside"),
			OutdoorAvg24h:       number(values, "temperature_outside_avg"),
			HeatingFlow:         number(values, "temperature_supply"),
			HeatingReturn:       number(values, "temperature_return"),
			HeatingReturnTarget: number(values, "temperature_target_return"),
			HotWater:            number(values, "temperature_hot_water"),
			SourceIn:            number(values, "temperature_heat_source_in"),
			SourceOut:           number(values, "temperature_heat_source_out"),
			HotGas:              number(values, "temperature_hot_gas"),
		},
		Outputs: models.Outputs{
			Compressor:        isOn(values["compressor1"]),
			HeatingPump:       isOn(values["heatingSystemCircPump"]) || isOn(values["HUPout"]),
			BrinePump:         isOn(values["VBOout"]) || isOn(values["sourceSystemCircPump"]),
			HotWaterValve:     isOn(values["BUPout"]) || isOn(values["hotWaterSystemCircPump"]),
			RecirculationPump: isOn(values["ZUPout"]) || isOn(values["hotWaterRecircPump"]),
			DefrostValve:      isOn(values["AVout"]),
		},
		OperatingState: models.OperatingState{
			Mode:               operatingMode(values),
			HeatingMode:        int(number(params, "heating_operation_mode")),
			HotWaterMode:       int(number(params, "warmwater_operation_mode")),
			HeatingTargetTemp:  number(params, "heating_temperature", "heating_target_temperature"),
			HotWaterTargetTemp: number(params, "warmwater_temperature", "temperature_hot_water_target", "warmwater_target_temperature"),
		},
		Runtime: models.Runtime{
			CompressorHours:    number(values, "hours_compressor1"),
			HeatingHours:       number(values, "hours_heating", "hours_heatpump"),
			HotWaterHours:      number(values, "hours_hot_water"),
			TotalHours:         number(values, "hours_heatpump", "hours_compressor1"),
			CompressorImpulses: number(values, "starts_compressor1"),
			HeatingEnergy:      heatingEnergy,
			HotWaterEnergy:     hotWaterEnergy,
			TotalEnergy:        heatingEnergy + hotWaterEnergy,
		},
		Errors: parseErrors(values["errors"], now),
		Pressures: models.Pressures{
			High: number(values, "HDin_pressure"),
			Low:  number(values, "NDin_pressure"),
		},
		HeatingCurve: models.HeatingCurve{
			EndPoint:       number(params, "heating_curve_end_point"),
			ParallelOffset: number(params, "heating_curve_parallel_offset"),
			DeltaReduction: number(params, "deltaHeatingReduction"),
		},
	}
}

// Disconnected builds the snapshot published while the controller is unreachable.
func Disconnected(now time.Time) *models.HeatPumpSnapshot {
	return &models.HeatPumpSnapshot{
		Timestamp:      now,
		Connected:      false,
		OperatingState: models.OperatingState{Mode: models.ModeConnectionError},
		Errors:         []models.ErrorEntry{},
	}
}
