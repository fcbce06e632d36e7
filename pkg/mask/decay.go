package mask

import "fmt"

// A DecayFunc says how far a pixel's detail value falls in one tick when
// nothing brighter has been seen there. `rate` is in detail units.
type DecayFunc func(prev uint16, rate int) uint16

// DecayLinear subtracts the fade rate each tick, bottoming out at zero.
// From full presence it takes ceil(MaxDetail/rate) ticks to clear.
func DecayLinear(prev uint16, rate int) uint16 {
	if int(prev) <= rate {
		return 0
	}
	return prev - uint16(rate)
}

// DecayProportional removes the fraction rate/MaxDetail of what is left,
// so trails fade quickly at first and then linger. It always removes at
// least one unit, so it can't stall above zero.
func DecayProportional(prev uint16, rate int) uint16 {
	if prev == 0 || rate <= 0 {
		return prev
	}
	drop := int(prev) * rate / MaxDetail
	if drop < 1 { drop = 1 }
	if drop >= int(prev) {
		return 0
	}
	return prev - uint16(drop)
}

var(
	DecayStrategies = []string{"linear", "proportional"}
)

func GetDecay(name string) (DecayFunc, error) {
	switch name {
	case "", "linear":  return DecayLinear, nil
	case "proportional": return DecayProportional, nil
	default:
		return nil, fmt.Errorf("no decay strategy named '%s', wanted %v", name, DecayStrategies)
	}
}
