package tilefix

import (
	"sort"
	"strconv"
)

const (
	// Property types
	// see doc.mapeditor.org/en/stable/reference/tmx-map-format/#properties
	PropString = "string"
	PropInt    = "int"
	PropBool   = "bool"
)

// Properties wraps the raw []*Property of a tileset, keeping each value
// under its own type.
type Properties struct {
	ints    map[string]int
	strings map[string]string
	bools   map[string]bool

	// types we don't interpret (float, color, file ..) are kept as is
	other map[string]*Property
}

// NewProperties returns an empty properties
func NewProperties() *Properties {
	return &Properties{
		ints:    map[string]int{},
		strings: map[string]string{},
		bools:   map[string]bool{},
		other:   map[string]*Property{},
	}
}

// Merge properties `o` into this properties
func (p *Properties) Merge(o *Properties) *Properties {
	for k, v := range o.ints {
		p.SetInt(k, v)
	}
	for k, v := range o.strings {
		p.SetString(k, v)
	}
	for k, v := range o.bools {
		p.SetBool(k, v)
	}
	for k, v := range o.other {
		p.clear(k)
		p.other[k] = v
	}
	return p
}

// Len returns the number of properties set
func (p *Properties) Len() int {
	return len(p.ints) + len(p.strings) + len(p.bools) + len(p.other)
}

// toList turns properties back into []*Property understood by the XML
// encoder, sorted by name so files don't churn between runs.
func (p *Properties) toList() []*Property {
	ps := []*Property{}
	for k, v := range p.ints {
		ps = append(ps, &Property{Name: k, Value: strconv.Itoa(v), Type: PropInt})
	}
	for k, v := range p.bools {
		ps = append(ps, &Property{Name: k, Value: strconv.FormatBool(v), Type: PropBool})
	}
	for k, v := range p.strings {
		ps = append(ps, &Property{Name: k, Value: v})
	}
	for _, v := range p.other {
		ps = append(ps, v)
	}
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].Name < ps[j].Name
	})
	return ps
}

// newPropertiesFromList turns the XML []*Property into properties
func newPropertiesFromList(in []*Property) *Properties {
	ps := NewProperties()

	for _, i := range in {
		switch i.Type {
		case PropInt:
			v, err := strconv.Atoi(i.Value)
			if err != nil {
				ps.other[i.Name] = i
				continue
			}
			ps.SetInt(i.Name, v)
		case PropBool:
			ps.SetBool(i.Name, i.Value == "true")
		case PropString, "":
			ps.SetString(i.Name, i.Value)
		default:
			ps.other[i.Name] = i
		}
	}

	return ps
}

func (p *Properties) clear(key string) {
	delete(p.ints, key)
	delete(p.strings, key)
	delete(p.bools, key)
	delete(p.other, key)
}

func (p *Properties) String(key string) (string, bool) {
	v, ok := p.strings[key]
	return v, ok
}

func (p *Properties) SetString(key, value string) {
	p.clear(key)
	p.strings[key] = value
}

func (p *Properties) Int(key string) (int, bool) {
	v, ok := p.ints[key]
	return v, ok
}

func (p *Properties) SetInt(key string, value int) {
	p.clear(key)
	p.ints[key] = value
}

func (p *Properties) Bool(key string) (bool, bool) {
	v, ok := p.bools[key]
	return v, ok
}

func (p *Properties) SetBool(key string, value bool) {
	p.clear(key)
	p.bools[key] = value
}
