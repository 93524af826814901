package lms

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ILTType is the only training-unit type in scope for attendance.
const ILTType = "Instructor-led training"

// Credentials identify the upstream tenant and API key for a single call.
// Zero fields fall back to the client's configured defaults.
type Credentials struct {
	Subdomain string
	APIKey    string
}

// FlexString tolerates upstream fields that arrive as JSON strings or
// numbers. The API has been seen returning both for ids.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(raw)
	return nil
}

// FlexFloat coerces a string or numeric JSON value into a float64.
// Anything unparseable becomes 0 rather than an error.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		*f = FlexFloat(v)
	}
	return nil
}

// FlexInt coerces a string or numeric JSON value into a non-negative int.
// Unparseable or negative values become 0.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	*i = 0
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	*i = FlexInt(int(v))
	return nil
}

// TrainingUnit is a unit row from the user-status-in-course lookup,
// already filtered to instructor-led training by the client.
type TrainingUnit struct {
	ID               FlexString `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	CompletionStatus string     `json:"completion_status"`
	Score            FlexFloat  `json:"score"`
}

// SessionRecord is a raw scheduled session for a training unit. The start
// date is kept as the upstream string; normalisation happens downstream.
type SessionRecord struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	StartDate       string  `json:"start_date"`
	DurationMinutes FlexInt `json:"duration_minutes"`
}
