package tasks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type createTaskInput struct {
	Text string `json:"text"`
}

type updateTaskInput struct {
	Completed bool `json:"completed"`
}

var (
	createTaskSchema = jsonschema.MustCompileString("https://taskflow.local/schema/create-task.json", `{
		"type": "object",
		"properties": {
			"text": {"type": ["string", "null"]}
		}
	}`)

	updateTaskSchema = jsonschema.MustCompileString("https://taskflow.local/schema/update-task.json", `{
		"type": "object",
		"required": ["completed"],
		"properties": {
			"completed": {"type": "boolean"}
		}
	}`)
)

// decodeValidated checks body against schema before decoding it into dst.
// Failures come back as *ValidationError carrying field and message.
func decodeValidated(body io.Reader, schema *jsonschema.Schema, dst any, field, message string) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return &ValidationError{Field: "body", Message: "unreadable request body"}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Field: "body", Message: "invalid JSON"}
	}
	if dec.More() {
		return &ValidationError{Field: "body", Message: "invalid JSON: multiple JSON values"}
	}

	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Field: field, Message: message, Details: schemaDetails(err)}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return &ValidationError{Field: field, Message: message}
	}
	return nil
}

func schemaDetails(err error) []FieldError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []FieldError{{Message: err.Error()}}
	}
	var out []FieldError
	collectLeaves(ve, &out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]FieldError) {
	if len(ve.Causes) == 0 {
		*out = append(*out, FieldError{
			Field:   pointerToField(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}

func pointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "body"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
