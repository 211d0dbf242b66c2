package radar

import (
	"encoding/json"
	"math"
	"strconv"
)

// nullFloat is a float64 that round-trips NaN as JSON null. encoding/json
// rejects NaN and Infinity outright, but missing gates are the norm in radar
// data, so field arrays encode them as null on the wire.
type nullFloat float64

func (n nullFloat) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (n *nullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = nullFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = nullFloat(v)
	return nil
}

type fieldJSON struct {
	Units       string      `json:"units,omitempty"`
	LongName    string      `json:"long_name,omitempty"`
	Description string      `json:"description,omitempty"`
	Data        []nullFloat `json:"data"`
}

// MarshalJSON encodes the field with NaN gates as null.
func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldJSON{
		Units:       f.Units,
		LongName:    f.LongName,
		Description: f.Description,
		Data:        make([]nullFloat, len(f.Data)),
	}
	for i, v := range f.Data {
		out.Data[i] = nullFloat(v)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes null gates back into NaN.
func (f *Field) UnmarshalJSON(b []byte) error {
	var in fieldJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	f.Units = in.Units
	f.LongName = in.LongName
	f.Description = in.Description
	f.Data = make([]float64, len(in.Data))
	for i, v := range in.Data {
		f.Data[i] = float64(v)
	}
	return nil
}
