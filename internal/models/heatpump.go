package models

import "time"

// ModeConnectionError is the operating mode reported while the heat pump is unreachable.
const ModeConnectionError = "Erreur connexion"

// Operating modes reported by the heat pump controller.
const (
	ModeHeating   = "Chauffage"
	ModeHotWater  = "Eau chaude"
	ModePool      = "Piscine"
	ModeDefrost   = "Dégivrage"
	ModeIdle      = "Repos"
	ModeError     = "Erreur"
	ModeCooling   = "Refroidissement"
	ModeUndefined = "Inconnu"
)

// OperationModes maps the heating / hot-water mode selector values to labels.
var OperationModes = map[int]string{
	0: "Automatique",
	1: "2nde source",
	2: "Fête",
	3: "Vacances",
	4: "Off",
}

type Temperatures struct {
	Outdoor             float64 `json:"outdoor"`
	OutdoorAvg24h       float64 `json:"outdoorAvg24h"`
	HeatingFlow         float64 `json:"heatingFlow"`
	HeatingReturn       float64 `json:"heatingReturn"`
	HeatingReturnTarget float64 `json:"heatingReturnTarget"`
	HotWater            float64 `json:"hotWater"`
	SourceIn            float64 `json:"sourceIn"`  // brine from the ground loop
	SourceOut           float64 `json:"sourceOut"` // brine back to the ground loop
	HotGas              float64 `json:"hotGas"`
}

type Outputs struct {
	Compressor        bool `json:"compressor"`
	HeatingPump       bool `json:"heatingPump"`
	BrinePump         bool `json:"brinePump"`
	HotWaterValve     bool `json:"hotWaterValve"`
	RecirculationPump bool `json:"recirculationPump"`
	DefrostValve      bool `json:"defrostValve"`
}

type OperatingState struct {
	Mode               string  `json:"mode"`
	HeatingMode        int     `json:"heatingMode"`  // 0..4, see OperationModes
	HotWaterMode       int     `json:"hotWaterMode"` // 0..4, see OperationModes
	HeatingTargetTemp  float64 `json:"heatingTargetTemp"`
	HotWaterTargetTemp float64 `json:"hotWaterTargetTemp"`
}

type Runtime struct {
	CompressorHours    float64 `json:"compressorHours"`
	HeatingHours       float64 `json:"heatingHours"`
	HotWaterHours      float64 `json:"hotWaterHours"`
	TotalHours         float64 `json:"totalHours"`
	CompressorImpulses float64 `json:"compressorImpulses"`
	HeatingEnergy      float64 `json:"heatingEnergy"`  // kWh
	HotWaterEnergy     float64 `json:"hotWaterEnergy"` // kWh
	TotalEnergy        float64 `json:"totalEnergy"`    // kWh
}

type ErrorEntry struct {
	Timestamp   string `json:"timestamp"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type Pressures struct {
	High float64 `json:"high"` // bar
	Low  float64 `json:"low"`  // bar
}

type HeatingCurve struct {
	EndPoint       float64 `json:"endPoint"`
	ParallelOffset float64 `json:"parallelOffset"`
	DeltaReduction float64 `json:"deltaReduction"`
}

// HeatPumpSnapshot is one normalized read of the heat pump. It is never mutated after creation.
type HeatPumpSnapshot struct {
	Timestamp      time.Time      `json:"timestamp"`
	Connected      bool           `json:"connected"`
	Temperatures   Temperatures   `json:"temperatures"`
	Outputs        Outputs        `json:"outputs"`
	OperatingState OperatingState `json:"operatingState"`
	Runtime        Runtime        `json:"runtime"`
	Errors         []ErrorEntry   `json:"errors"`
	Pressures      Pressures      `json:"pressures"`
	HeatingCurve   HeatingCurve   `json:"heatingCurve"`
}

// IsCooling reports whether the heat pump currently runs in cooling mode.
func (s *HeatPumpSnapshot) IsCooling() bool {
	return s.OperatingState.Mode == ModeCooling
}
