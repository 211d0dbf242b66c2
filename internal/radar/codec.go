package radar

import (
	"encoding/json"
	"fmt"
)

// DecodeVolume deserializes a raw volume message payload and structurally
// validates it. Out-of-band NaN encoding: the ingest service writes missing
// gates as JSON null, which unmarshals into NaN via nullFloat below.
func DecodeVolume(payload []byte) (*Volume, error) {
	var vol Volume
	if err := json.Unmarshal(payload, &vol); err != nil {
		return nil, fmt.Errorf("decode volume: %w", err)
	}
	if err := vol.Validate(); err != nil {
		return nil, fmt.Errorf("decode volume: %w", err)
	}
	vol.SortSweepsByElevation()
	return &vol, nil
}

// EncodeVolume serializes a volume for the sink topic.
func EncodeVolume(vol *Volume) ([]byte, error) {
	data, err := json.Marshal(vol)
	if err != nil {
		return nil, fmt.Errorf("encode volume: %w", err)
	}
	return data, nil
}
