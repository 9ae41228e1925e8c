package device

import "fmt"

type Option uint8

const (
	AutomaticGainControl Option = iota
	Loop
)

func (o Option) String() string {
	switch o {
	case AutomaticGainControl:
		return "automatic_gain_control"
	case Loop:
		return "loop"
	default:
		return fmt.Sprintf("option(%d)", uint8(o))
	}
}
