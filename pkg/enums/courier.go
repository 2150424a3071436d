package enums

import "fmt"

// Courier is a shipping carrier code accepted by the rate lookup API.
type Courier string

const (
	CourierJNE      Courier = "jne"
	CourierPos      Courier = "pos"
	CourierTIKI     Courier = "tiki"
	CourierSiCepat  Courier = "sicepat"
	CourierAnterAja Courier = "anteraja"
	CourierJNT      Courier = "jnt"
)

var validCouriers = []Courier{
	CourierJNE,
	CourierPos,
	CourierTIKI,
	CourierSiCepat,
	CourierAnterAja,
	CourierJNT,
}

// String implements fmt.Stringer.
func (c Courier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Courier.
func (c Courier) IsValid() bool {
	for _, candidate := range validCouriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCourier converts raw input into a Courier.
func ParseCourier(value string) (Courier, error) {
	for _, candidate := range validCouriers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid courier %q", value)
}
