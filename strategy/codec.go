package strategy

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Elements is the ordered visual_elements list. It encodes as the tagged
// objects produced by the chart front end:
//
//	{"type": "horizontal_line", "price": 1.1, "action": "buy_above"}
//	{"type": "zone", "lower": 1.09, "upper": 1.1, "action": "buy_in_zone"}
//	{"type": "trendline", "points": [...], "action": "..."}
type Elements []Element

type rawElement struct {
	Type   Kind     `json:"type" yaml:"type"`
	Price  *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Lower  *float64 `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper  *float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
	Points []Anchor `json:"points,omitempty" yaml:"points,omitempty"`
	Action Action   `json:"action,omitempty" yaml:"action,omitempty"`
}

func (r rawElement) element(i int) (Element, error) {
	missing := func(field string) error {
		return fmt.Errorf("visual_elements[%d].%s is required for %s", i, field, r.Type)
	}

	switch r.Type {
	case KindHorizontalLine:
		if r.Price == nil {
			return nil, missing("price")
		}
		return HorizontalLine{Price: *r.Price, Action: r.Action}, nil
	case KindZone:
		if r.Lower == nil {
			return nil, missing("lower")
		}
		if r.Upper == nil {
			return nil, missing("upper")
		}
		return Zone{Lower: *r.Lower, Upper: *r.Upper, Action: r.Action}, nil
	case KindTrendline:
		return Trendline{Points: r.Points, Action: r.Action}, nil
	case "":
		return nil, fmt.Errorf("visual_elements[%d].type is required", i)
	}
	return nil, fmt.Errorf("visual_elements[%d].type %q is not supported", i, r.Type)
}

func toRaw(el Element) (rawElement, error) {
	switch e := el.(type) {
	case HorizontalLine:
		return rawElement{Type: KindHorizontalLine, Price: &e.Price, Action: e.Action}, nil
	case Zone:
		return rawElement{Type: KindZone, Lower: &e.Lower, Upper: &e.Upper, Action: e.Action}, nil
	case Trendline:
		return rawElement{Type: KindTrendline, Points: e.Points, Action: e.Action}, nil
	}
	return rawElement{}, fmt.Errorf("cannot encode element %T", el)
}

func fromRaws(raws []rawElement) (Elements, error) {
	out := make(Elements, 0, len(raws))
	for i, r := range raws {
		el, err := r.element(i)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func (es Elements) raws() ([]rawElement, error) {
	out := make([]rawElement, 0, len(es))
	for _, el := range es {
		r, err := toRaw(el)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (es Elements) MarshalJSON() ([]byte, error) {
	raws, err := es.raws()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raws)
}

func (es *Elements) UnmarshalJSON(b []byte) error {
	var raws []rawElement
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out, err := fromRaws(raws)
	if err != nil {
		return err
	}
	*es = out
	return nil
}

func (es Elements) MarshalYAML() (any, error) {
	return es.raws()
}

func (es *Elements) UnmarshalYAML(value *yaml.Node) error {
	var raws []rawElement
	if err := value.Decode(&raws); err != nil {
		return err
	}
	out, err := fromRaws(raws)
	if err != nil {
		return err
	}
	*es = out
	return nil
}
