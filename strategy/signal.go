package strategy

import "fmt"

// Side is the direction of a position.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// MarshalText encodes a side as "buy" or "sell".
func (s Side) MarshalText() ([]byte, error) {
	switch s {
	case Buy, Sell:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("invalid side %d", int8(s))
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buy", "BUY", "long":
		*s = Buy
	case "sell", "SELL", "short":
		*s = Sell
	default:
		return fmt.Errorf("invalid side %q", b)
	}
	return nil
}

// EvaluateEntry walks elements in declared order and returns the side of the
// first one whose condition holds for prevClose. prevClose must be the close
// of the last completed bar, never the bar being traded.
func EvaluateEntry(prevClose float64, elements []Element) (Side, bool) {
	for _, el := range elements {
		switch e := el.(type) {
		case HorizontalLine:
			switch {
			case e.Action == BuyAbove && prevClose > e.Price:
				return Buy, true
			case e.Action == SellBelow && prevClose < e.Price:
				return Sell, true
			}
		case Zone:
			inZone := e.Lower <= prevClose && prevClose <= e.Upper
			switch {
			case e.Action == BuyInZone && inZone:
				return Buy, true
			case e.Action == SellInZone && inZone:
				return Sell, true
			}
		case Trendline:
			// not implemented
		default:
			// Definition.Validate rejects every other type, pointers included.
			continue
		}
	}
	return 0, false
}
