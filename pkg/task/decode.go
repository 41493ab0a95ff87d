package task

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidInput is returned when no task was supplied at all.
	ErrInvalidInput = errors.New("task is required")

	// ErrTypeMismatch is returned when the supplied task is not an object.
	ErrTypeMismatch = errors.New("task must be an object")
)

// Decode parses a raw JSON document into a Task.
// A missing document or JSON null yields ErrInvalidInput; strings, numbers,
// booleans and arrays yield ErrTypeMismatch.
func Decode(raw []byte) (*Task, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrInvalidInput
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("decode task: malformed JSON")
	}

	res := gjson.ParseBytes(raw)
	if res.Type == gjson.Null {
		return nil, ErrInvalidInput
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: got %s", ErrTypeMismatch, describe(res))
	}
	return fromResult(res), nil
}

// UnmarshalJSON decodes a task leniently: fields of the wrong JSON type are
// treated as absent rather than rejected.
func (t *Task) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("%w: got %s", ErrTypeMismatch, describe(res))
	}
	*t = *fromResult(res)
	return nil
}

// UnmarshalJSON decodes the recognized metadata flags, ignoring anything else.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = metadataFrom(gjson.ParseBytes(data))
	return nil
}

func fromResult(res gjson.Result) *Task {
	t := &Task{
		ID:       stringField(res, "id"),
		Type:     Kind(stringField(res, "type")),
		Prompt:   stringField(res, "prompt"),
		Metadata: metadataFrom(res.Get("metadata")),
	}
	if c := res.Get("complexity"); c.Type == gjson.Number {
		v := int(c.Int())
		t.Complexity = &v
	}
	return t
}

func metadataFrom(res gjson.Result) Metadata {
	if !res.IsObject() {
		return Metadata{}
	}
	return Metadata{
		RequiresContext:       res.Get("requiresContext").Bool(),
		RequiresMultipleSteps: res.Get("requiresMultipleSteps").Bool(),
		RequiresReasoning:     res.Get("requiresReasoning").Bool(),
		EstimatedDuration:     Duration(stringField(res, "estimatedDuration")),
	}
}

func stringField(res gjson.Result, key string) string {
	v := res.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

func describe(res gjson.Result) string {
	switch {
	case res.IsArray():
		return "array"
	case res.Type == gjson.String:
		return "string"
	case res.Type == gjson.Number:
		return "number"
	case res.Type == gjson.True || res.Type == gjson.False:
		return "boolean"
	default:
		return "unknown"
	}
}
