package graphql

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is the Date scalar, serialized as an RFC 3339 timestamp in UTC.
type Date struct {
	time.Time
}

func newDate(t time.Time) Date { return Date{Time: t} }

// ImplementsGraphQLType maps Date to the Date scalar.
func (Date) ImplementsGraphQLType(name string) bool { return name == "Date" }

// UnmarshalGraphQL accepts an RFC 3339 string.
func (d *Date) UnmarshalGraphQL(input any) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("date must be an RFC 3339 string, got %T", input)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}

// JSON is the Json scalar: any JSON value, stored as raw bytes.
type JSON struct {
	raw json.RawMessage
}

// newJSON returns nil for empty metadata so the field resolves to null.
func newJSON(raw json.RawMessage) *JSON {
	if len(raw) == 0 {
		return nil
	}
	return &JSON{raw: raw}
}

// ImplementsGraphQLType maps JSON to the Json scalar.
func (JSON) ImplementsGraphQLType(name string) bool { return name == "Json" }

// UnmarshalGraphQL re-encodes the decoded input value.
func (j *JSON) UnmarshalGraphQL(input any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode json scalar: %w", err)
	}
	j.raw = raw
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j.raw) == 0 {
		return []byte("null"), nil
	}
	return j.raw, nil
}

// Raw returns the encoded value, or nil for a nil receiver.
func (j *JSON) Raw() json.RawMessage {
	if j == nil {
		return nil
	}
	return j.raw
}
