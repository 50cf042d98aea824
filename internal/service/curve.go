package service

import (
	"math"

	"geothermal_monitor/internal/models"
)

// The controller's curve is a power law between +20 °C outdoor (parallel
// offset) and -15 °C outdoor (end point).
const (
	curveExponent = 1.4
	curveFootTemp = 20.0
	curveSpan     = 35.0
	curveMinX     = -20.0
	curveMaxX     = 25.0
	curveStepX    = 0.5
)

// CurveTemp returns the target return temperature for an outdoor temperature.
func CurveTemp(outdoor, endPoint, parallelOffset float64) float64 {
	t := math.Max(0, (curveFootTemp-outdoor)/curveSpan)
	return parallelOffset + (endPoint-parallelOffset)*math.Pow(t, curveExponent)
}

type CurvePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CurvePoints samples the curve over [xMin, xMax].
func CurvePoints(endPoint, parallelOffset, xMin, xMax, step float64) []CurvePoint {
	if step <= 0 || xMax < xMin {
		return []CurvePoint{}
	}
	n := int(math.Floor((xMax-xMin)/step+1e-9)) + 1
	out := make([]CurvePoint, 0, n)
	for i := 0; i < n; i++ {
		x := xMin + float64(i)*step
		out = append(out, CurvePoint{X: x, Y: CurveTemp(x, endPoint, parallelOffset)})
	}
	return out
}

// CurveReport is the heating curve as configured on the heat pump, where the
// current outdoor temperature sits on it, and the sampled curve.
type CurveReport struct {
	Curve               models.HeatingCurve `json:"curve"`
	Outdoor             float64             `json:"outdoor"`
	CurveTarget         float64             `json:"curveTarget"`
	HeatingReturnTarget float64             `json:"heatingReturnTarget"`
	Points              []CurvePoint        `json:"points"`
}

// BuildCurveReport derives the report from a heat pump snapshot.
func BuildCurveReport(s *models.HeatPumpSnapshot) CurveReport {
	c := s.HeatingCurve
	return CurveReport{
		Curve:               c,
		Outdoor:             s.Temperatures.Outdoor,
		CurveTarget:         round1(CurveTemp(s.Temperatures.Outdoor, c.EndPoint, c.ParallelOffset)),
		HeatingReturnTarget: s.Temperatures.HeatingReturnTarget,
		Points:              CurvePoints(c.EndPoint, c.ParallelOffset, curveMinX, curveMaxX, curveStepX),
	}
}
