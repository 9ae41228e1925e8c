package device

import "fmt"

// Type tags which implementation produced a Descriptor.
type Type string

// Descriptor identifies one device that could be opened right now. It is a
// snapshot: IDs are only meaningful within the process that listed them.
type Descriptor struct {
	// ID is relative to Type, e.g. the USB index for RTL-SDR sticks.
	ID           int
	Serial       string
	Kind         string
	Manufacturer string
	Type         Type
}

// Equal reports whether d and other name the same device. Only ID and Type
// take part in the comparison.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.ID == other.ID && d.Type == other.Type
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s#%d: %s %s (serial %q)", d.Type, d.ID, d.Manufacturer, d.Kind, d.Serial)
}
