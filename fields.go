package addressfmt

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Field names templates use to reference address components.
const (
	FieldUnit         = "unit"
	FieldHouseName    = "house_name"
	FieldStreetNumber = "street_number"
	FieldStreetName   = "street_name"
	FieldLocality     = "locality"
	FieldCity         = "city"
	FieldCounty       = "county"
	FieldState        = "state"
	FieldCountry      = "country"
	FieldPostalCode   = "postalcode"
)

// FieldNames lists the names exposed by Address in template order of
// significance.
var FieldNames = []string{
	FieldUnit,
	FieldHouseName,
	FieldStreetNumber,
	FieldStreetName,
	FieldLocality,
	FieldCity,
	FieldCounty,
	FieldState,
	FieldCountry,
	FieldPostalCode,
}

// Fields exposes named address components to a template.
//
// Field returns ok == false when the record has no field with that name at
// all. An exposed but unset field returns ("", true) and renders as an empty
// substitution.
type Fields interface {
	Field(name string) (value string, ok bool)
}

// Address is the canonical address record. Every component is optional; an
// empty string means absent.
type Address struct {
	// Unit holds flats, units, floors, apartments.
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	// HouseName is the name of a building or house.
	HouseName string `json:"house_name,omitempty" yaml:"house_name,omitempty"`
	// StreetNumber is the number on the street. Not always numerical.
	StreetNumber string `json:"street_number,omitempty" yaml:"street_number,omitempty"`
	StreetName   string `json:"street_name,omitempty" yaml:"street_name,omitempty"`
	// Locality is a sub-region of a city, a neighborhood or a dependent town.
	Locality string `json:"locality,omitempty" yaml:"locality,omitempty"`
	// City is the postal city or town.
	City   string `json:"city,omitempty" yaml:"city,omitempty"`
	County string `json:"county,omitempty" yaml:"county,omitempty"`
	// State is the first-level division. For the UK this can be England,
	// Scotland or Wales.
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	PostalCode string `json:"postalcode,omitempty" yaml:"postalcode,omitempty"`
}

// Field implements Fields. All names in FieldNames are exposed.
func (a Address) Field(name string) (string, bool) {
	switch name {
	case FieldUnit:
		return a.Unit, true
	case FieldHouseName:
		return a.HouseName, true
	case FieldStreetNumber:
		return a.StreetNumber, true
	case FieldStreetName:
		return a.StreetName, true
	case FieldLocality:
		return a.Locality, true
	case FieldCity:
		return a.City, true
	case FieldCounty:
		return a.County, true
	case FieldState:
		return a.State, true
	case FieldCountry:
		return a.Country, true
	case FieldPostalCode:
		return a.PostalCode, true
	default:
		return "", false
	}
}

// Map is a dynamic record. It exposes exactly the keys it contains.
type Map map[string]string

// Field implements Fields.
func (m Map) Field(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// FieldsOf adapts any JSON-serializable record to Fields. Struct tags decide
// the names. For structs every exported field is exposed, including those
// omitempty drops from the JSON form, which render as empty. Other records
// expose the keys of their JSON object form. Null values are exposed as
// empty. Values that implement Fields are returned unchanged.
func FieldsOf(record any) (Fields, error) {
	switch v := record.(type) {
	case nil:
		return nil, ErrNilFields
	case Fields:
		return v, nil
	case map[string]string:
		return Map(v), nil
	}
	if rv := reflect.ValueOf(record); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, ErrNilFields
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: record must serialize to an object: %s", ErrInvalidRecord, err)
	}

	out := make(Map, len(raw))
	for key, value := range raw {
		s, err := scalarString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %s", ErrInvalidRecord, key, err)
		}
		out[key] = s
	}
	for _, name := range jsonFieldNames(reflect.TypeOf(record)) {
		if _, ok := out[name]; !ok {
			out[name] = ""
		}
	}
	return out, nil
}

// jsonFieldNames lists the object keys encoding/json can produce for t,
// following untagged embedded structs. It returns nil for non-struct types.
func jsonFieldNames(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if field.Anonymous && name == "" {
			ft := field.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				names = append(names, jsonFieldNames(ft)...)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		names = append(names, name)
	}
	return names
}

func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}
