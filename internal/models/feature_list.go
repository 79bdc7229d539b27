package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Feature is one entry of a product's key features.
type Feature struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
}

// FeatureList keeps key features in the order the commerce API sent them.
// On the wire it is a JSON object; a plain map would lose that order.
type FeatureList []Feature

// UnmarshalJSON accepts an object of name/value pairs, an array of
// {name, value} entries, or null.
func (f *FeatureList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case nil:
		*f = nil
		return nil
	case json.Delim('['):
		var entries []Feature
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		*f = entries
		return nil
	case json.Delim('{'):
	default:
		return fmt.Errorf("cannot decode %v into FeatureList", tok)
	}

	features := FeatureList{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v in FeatureList", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value := featureValue(raw)

		// a repeated key keeps its first position and takes the last value
		if i, seen := index[name]; seen {
			features[i].Value = value
			continue
		}
		index[name] = len(features)
		features = append(features, Feature{Name: name, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = features
	return nil
}

// MarshalJSON writes the features back as an ordered JSON object.
func (f FeatureList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, feature := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(feature.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(feature.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func featureValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}
