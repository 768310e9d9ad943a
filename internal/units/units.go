// Package units fixes the unit conventions used across the module and
// converts between them. Wavelengths are microns, frequencies Hz, fluxes mJy,
// distances kpc and apertures AU; there is no runtime unit negotiation, so a
// quantity outside its convention is an error, not a conversion.
package units

import "fmt"

// SpeedOfLight is c in micron*Hz, matching the micron/Hz convention used for
// all spectral grids.
const SpeedOfLight = 2.99792458e14

// Canonical unit names as they appear in data files.
const (
	UnitWavelength = "micron"
	UnitFrequency  = "Hz"
	UnitFlux       = "mJy"
	UnitDistance   = "kpc"
	UnitAperture   = "AU"
)

// UnitError reports a quantity that violates the module's unit conventions,
// either a non-physical value or a data file declaring the wrong unit.
type UnitError struct {
	Quantity string
	Unit     string
	Value    float64
	Reason   string
}

func (e *UnitError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("units: %s %g %s: %s", e.Quantity, e.Value, e.Unit, e.Reason)
	}
	return fmt.Sprintf("units: invalid %s: %g %s", e.Quantity, e.Value, e.Unit)
}

// Frequency converts a wavelength in microns to a frequency in Hz.
func Frequency(wav float64) (float64, error) {
	if wav <= 0 {
		return 0, &UnitError{Quantity: "wavelength", Unit: UnitWavelength, Value: wav, Reason: "must be positive"}
	}
	return SpeedOfLight / wav, nil
}

// Wavelength converts a frequency in Hz to a wavelength in microns.
func Wavelength(nu float64) (float64, error) {
	if nu <= 0 {
		return 0, &UnitError{Quantity: "frequency", Unit: UnitFrequency, Value: nu, Reason: "must be positive"}
	}
	return SpeedOfLight / nu, nil
}

// CheckUnit verifies that a data file declares the expected unit for a
// quantity.
func CheckUnit(quantity, got, want string) error {
	if got != want {
		return &UnitError{Quantity: quantity, Unit: got, Reason: fmt.Sprintf("want %s", want)}
	}
	return nil
}
