package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Product is a catalog record as served by the commerce API. The storefront
// never creates or mutates products; it only reads and forwards them.
type Product struct {
	ID               string      `bson:"_id" json:"_id"`
	Name             string      `bson:"name" json:"name"`
	Description      string      `bson:"description,omitempty" json:"description,omitempty"`
	Image            string      `bson:"image,omitempty" json:"image,omitempty"`
	Category         string      `bson:"category,omitempty" json:"category,omitempty"`
	Price            float64     `bson:"price" json:"price"`
	Status           bool        `bson:"status" json:"status"`
	IndividualRating float64     `bson:"individualRating" json:"individualRating"`
	AverageRating    float64     `bson:"averageRating" json:"averageRating"`
	KeyFeatures      FeatureList `bson:"keyFeatures" json:"keyFeatures"`
}

// UnmarshalJSON tolerates numeric fields sent as strings and a status sent
// as "true"/"false", so one odd record does not fail a whole listing.
func (p *Product) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	type plain Product
	var wire struct {
		plain
		Price            json.RawMessage `json:"price"`
		Status           json.RawMessage `json:"status"`
		IndividualRating json.RawMessage `json:"individualRating"`
		AverageRating    json.RawMessage `json:"averageRating"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*p = Product(wire.plain)
	p.Price = parseNumber(wire.Price)
	p.Status = parseBool(wire.Status)
	p.IndividualRating = parseNumber(wire.IndividualRating)
	p.AverageRating = parseNumber(wire.AverageRating)
	return nil
}

func parseNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed
		}
	}
	return 0
}

func parseBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}
