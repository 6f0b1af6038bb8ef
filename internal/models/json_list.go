package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// StringList encodes a slice of strings into a JSON column value.
func StringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(payload)
}

// IDList encodes a slice of identifiers into a JSON column value.
func IDList(values []uint) datatypes.JSON {
	if values == nil {
		values = []uint{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(payload)
}

// DecodeStrings reads a JSON column holding a list of strings. Malformed values decode as empty.
func DecodeStrings(raw datatypes.JSON) []string {
	values := []string{}
	if len(raw) == 0 {
		return values
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	return values
}

// DecodeIDs reads a JSON column holding a list of identifiers. Malformed values decode as empty.
func DecodeIDs(raw datatypes.JSON) []uint {
	values := []uint{}
	if len(raw) == 0 {
		return values
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return []uint{}
	}
	return values
}
