package hsda

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Variable names the radar measurements a membership table can key on.
type Variable string

const (
	VarReflectivity     Variable = "zh"
	VarDifferentialRefl Variable = "zdr"
	VarSpecificPhase    Variable = "kdp"
	VarCrossCorrelation Variable = "rhv"
	VarTemperature      Variable = "temp"
)

// knownVariables guards against typos in override tables.
var knownVariables = map[Variable]bool{
	VarReflectivity:     true,
	VarDifferentialRefl: true,
	VarSpecificPhase:    true,
	VarCrossCorrelation: true,
	VarTemperature:      true,
}

// ClassSpec defines one candidate hydrometeor/hail class: its membership
// function per variable, whether it counts as hail, and its tie-break
// priority (higher wins; hail classes sit above non-hail so equal scores
// resolve toward flagging hail).
type ClassSpec struct {
	Name       string                 `json:"name" validate:"required"`
	Hail       bool                   `json:"hail"`
	Priority   int                    `json:"priority"`
	Membership map[Variable]Trapezoid `json:"membership" validate:"required,min=1"`
}

// Config is a loadable membership-table set keyed by class name, with the
// per-variable aggregation weights and the minimum winning score. Different
// radar-band calibrations ship as different Configs.
type Config struct {
	Band     string               `json:"band" validate:"required,oneof=S C"`
	Classes  []ClassSpec          `json:"classes" validate:"required,min=1,dive"`
	Weights  map[Variable]float64 `json:"weights" validate:"required,min=1"`
	MinScore float64              `json:"min_score" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Validate checks the table for structural and numerical soundness. It runs
// once at load time so that evaluation never has to re-check breakpoints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("membership table: %w", err)
	}
	for v, w := range c.Weights {
		if !knownVariables[v] {
			return fmt.Errorf("membership table: unknown weight variable %q", v)
		}
		if w <= 0 {
			return fmt.Errorf("membership table: weight for %q must be positive, got %g", v, w)
		}
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, cls := range c.Classes {
		if seen[cls.Name] {
			return fmt.Errorf("membership table: duplicate class %q", cls.Name)
		}
		seen[cls.Name] = true
		for v, tr := range cls.Membership {
			if !knownVariables[v] {
				return fmt.Errorf("membership table: class %q: unknown variable %q", cls.Name, v)
			}
			if _, ok := c.Weights[v]; !ok {
				return fmt.Errorf("membership table: class %q: variable %q has no weight", cls.Name, v)
			}
			if !tr.Monotonic() {
				return fmt.Errorf("membership table: class %q variable %q: breakpoints must be non-decreasing, got [%g %g %g %g]",
					cls.Name, v, tr.X1, tr.X2, tr.X3, tr.X4)
			}
		}
	}
	return nil
}

// LoadConfig reads a membership-table override from a JSON file. Used to
// swap in alternative radar-band calibrations without a rebuild.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load membership table: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load membership table %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load membership table %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultConfig returns the built-in table for a radar band ("S" or "C").
// Unknown bands fall back to S band.
func DefaultConfig(band string) *Config {
	if band == "C" {
		return defaultConfigC()
	}
	return defaultConfigS()
}

// defaultConfigS is the S-band calibration. Breakpoints follow the shape of
// the Ortega et al. (2016) hail size discrimination tables: hail classes sit
// at progressively higher reflectivity, lower (then negative) Zdr, and lower
// rho-hv as hail size grows.
func defaultConfigS() *Config {
	return &Config{
		Band:     "S",
		MinScore: 0.5,
		Weights: map[Variable]float64{
			VarReflectivity:     1.0,
			VarDifferentialRefl: 0.8,
			VarSpecificPhase:    0.6,
			VarCrossCorrelation: 0.8,
			VarTemperature:      0.6,
		},
		Classes: []ClassSpec{
			{
				Name: ClassRain, Priority: 1,
				Membership: map[Variable]Trapezoid{
					VarReflectivity:     {5, 15, 40, 50},
					VarDifferentialRefl: {0.2, 0.5, 3.0, 4.5},
					VarSpecificPhase:    {-0.5, 0, 2.0, 4.0},
					VarCrossCorrelation: {0.95, 0.97, 1.0, 1.05},
					VarTemperature:      {-5, 0, 30, 40},
				},
			},
			{
				Name: ClassHeavyRain, Priority: 2,
				Membership: map[Variable]Trapezoid{
					VarReflectivity:     {40, 45, 55, 60},
					VarDifferentialRefl: {0.3, 0.8, 3.0, 4.0},
					VarSpecificPhase:    {1.0, 2.0, 7.0, 10.0},
					VarCrossCorrelation: {0.92, 0.95, 1.0, 1.02},
					VarTemperature:      {-5, 0, 35, 45},
				},
			},
			{
				Name: ClassGraupel, Priority: 3,
				Membership: map[Variable]Trapezoid{
					VarReflectivity:     {25, 35, 50, 55},
					VarDifferentialRefl: {-0.5, 0, 1.0, 1.5},
					VarSpecificPhase:    {-0.5, 0, 1.0, 2.0},
					VarCrossCorrelation: {0.90, 0.97, 1.0, 1.02},
					VarTemperature:      {-40, -30, -5, 0},
				},
			},
			{
				Name: ClassSmallHail, Hail: true, Priority: 4,
				Membership: map[Variable]Trapezoid{
					VarReflectivity:     {45, 50, 60, 65},
					VarDifferentialRefl: {-0.5, 0, 1.0, 2.0},
					VarSpecificPhase:    {-1.0, 0, 1.0, 2.0},
					VarCrossCorrelation: {0.92, 0.96, 0.99, 1.0},
					VarTemperature:      {-25, -15, 5, 15},
				},
			},
			{
				Name: ClassLargeHail, Hail: true, Priority: 5,
				Membership: map[Variable]Trapezoid{
					VarReflectivity:     {50, 55, 65, 70},
					VarDifferentialRefl: {-1.0, -0.5, 0.5, 1.0},
					VarSpecificPhase:    {-2.0, -1.0, 0.5, 1.5},
					VarCrossCorrelation: {0.90, 0.92, 0.97, 0.99},
					VarTemperature:      {-30, -20, 0, 10},
				},
			},
			{
				Name: ClassGiantHail, Hail: true, Priority: 6,
				Membership: map[Variable]Trapezoid{
					VarReflectivity:     {55, 60, 75, 80},
					VarDifferentialRefl: {-2.0, -1.0, 0, 0.5},
					VarSpecificPhase:    {-4.0, -2.0, 0, 1.0},
					VarCrossCorrelation: {0.85, 0.88, 0.95, 0.97},
					VarTemperature:      {-35, -25, -5, 5},
				},
			},
		},
	}
}

// defaultConfigC is the C-band calibration: hail appears 3-4 dBZ weaker at
// C band (resonance and attenuation), so the reflectivity breakpoints of the
// hail classes shift down and Zdr tolerances widen slightly.
func defaultConfigC() *Config {
	cfg := defaultConfigS()
	cfg.Band = "C"
	for i := range cfg.Classes {
		cls := &cfg.Classes[i]
		if !cls.Hail {
			continue
		}
		zh := cls.Membership[VarReflectivity]
		cls.Membership[VarReflectivity] = Trapezoid{zh.X1 - 4, zh.X2 - 4, zh.X3 - 4, zh.X4 - 4}
		zdr := cls.Membership[VarDifferentialRefl]
		cls.Membership[VarDifferentialRefl] = Trapezoid{zdr.X1 - 0.5, zdr.X2 - 0.25, zdr.X3 + 0.25, zdr.X4 + 0.5}
	}
	return cfg
}
