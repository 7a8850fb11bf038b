package order

import "encoding/json"

// encodeOptions serializes a selected-options payload for storage. The
// payload is opaque to the core; only serializability is checked, at
// validation time, so failures here are unexpected.
func encodeOptions(v interface{}) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	encoded := string(raw)
	return &encoded, nil
}

// decodeOptions turns a stored payload back into structured form.
// Legacy rows hold plain non-JSON strings; those are returned verbatim.
func decodeOptions(raw interface{}) interface{} {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	case string:
		s = v
	default:
		return raw
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return s
	}
	return parsed
}
