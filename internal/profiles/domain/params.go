package profiles

import "fmt"

// Defaults for the normalization passes.
const (
	DefaultCapacityWindowHours = 30 * 24
	DefaultAnnualWindowHours   = 8760
	DefaultHalfYearHours       = DefaultAnnualWindowHours / 2
	DefaultSolarCapacityFactor = 0.145
	DefaultWindCapacityFactor  = 0.35
	DefaultCutover             = DatehourKey("2013010101")

	// NominalCapacity is the value that represents full nameplate output.
	NominalCapacity = 1000
)

// Parameters holds the tunables of the normalization and truncation steps.
type Parameters struct {
	CapacityWindowHours int         `yaml:"capacity_window_hours" json:"capacity_window_hours"`
	AnnualWindowHours   int         `yaml:"annual_window_hours" json:"annual_window_hours"`
	HalfYearHours       int         `yaml:"half_year_hours" json:"half_year_hours"`
	SolarCapacityFactor float64     `yaml:"solar_capacity_factor" json:"solar_capacity_factor"`
	WindCapacityFactor  float64     `yaml:"wind_capacity_factor" json:"wind_capacity_factor"`
	Cutover             DatehourKey `yaml:"cutover" json:"cutover"`
}

// DefaultParameters returns the parameters used for the ISO-NE profiles.
func DefaultParameters() Parameters {
	return Parameters{
		CapacityWindowHours: DefaultCapacityWindowHours,
		AnnualWindowHours:   DefaultAnnualWindowHours,
		HalfYearHours:       DefaultHalfYearHours,
		SolarCapacityFactor: DefaultSolarCapacityFactor,
		WindCapacityFactor:  DefaultWindCapacityFactor,
		Cutover:             DefaultCutover,
	}
}

// WithDefaults fills zero fields from DefaultParameters. The cutover is left alone
// so an explicit empty cutover can disable truncation.
func (p Parameters) WithDefaults() Parameters {
	def := DefaultParameters()
	if p.CapacityWindowHours == 0 {
		p.CapacityWindowHours = def.CapacityWindowHours
	}
	if p.AnnualWindowHours == 0 {
		p.AnnualWindowHours = def.AnnualWindowHours
	}
	if p.HalfYearHours == 0 {
		p.HalfYearHours = p.AnnualWindowHours / 2
	}
	if p.SolarCapacityFactor == 0 {
		p.SolarCapacityFactor = def.SolarCapacityFactor
	}
	if p.WindCapacityFactor == 0 {
		p.WindCapacityFactor = def.WindCapacityFactor
	}
	return p
}

// Validate rejects parameters the passes cannot work with.
func (p Parameters) Validate() error {
	if p.CapacityWindowHours < 0 {
		return fmt.Errorf("%w: capacity window %d", ErrInvalidParameters, p.CapacityWindowHours)
	}
	if p.AnnualWindowHours <= 0 {
		return fmt.Errorf("%w: annual window %d", ErrInvalidParameters, p.AnnualWindowHours)
	}
	if p.HalfYearHours <= 0 || p.HalfYearHours > p.AnnualWindowHours {
		return fmt.Errorf("%w: half year %d with annual window %d", ErrInvalidParameters, p.HalfYearHours, p.AnnualWindowHours)
	}
	if err := validateCapacityFactor(p.SolarCapacityFactor); err != nil {
		return fmt.Errorf("solar: %w", err)
	}
	if err := validateCapacityFactor(p.WindCapacityFactor); err != nil {
		return fmt.Errorf("wind: %w", err)
	}
	if p.Cutover != "" {
		if err := p.Cutover.Validate(); err != nil {
			return fmt.Errorf("%w: cutover: %v", ErrInvalidParameters, err)
		}
	}
	return nil
}

func validateCapacityFactor(cf float64) error {
	if cf <= 0 || cf > 1 {
		return fmt.Errorf("%w: capacity factor %v outside (0,1]", ErrInvalidParameters, cf)
	}
	return nil
}
