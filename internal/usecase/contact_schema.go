package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"cricket-club-backend/internal/domain"
	"cricket-club-backend/pkg/apperror"
	"cricket-club-backend/pkg/validation"
)

const msgInvalidJSON = "Invalid JSON body"

// parse decodes and validates a submission. Problems are reported in the
// order the form shows them: wrong JSON types, then field rules, then keys
// the form does not have.
func (uc *contactUsecase) parse(body []byte) (*domain.ContactRequest, error) {
	keys, fields, err := objectFields(body)
	if err != nil {
		return nil, apperror.BadRequest(msgInvalidJSON)
	}

	// encoding/json folds key case, so only exact keys are decoded.
	var req domain.ContactRequest
	for _, k := range domain.ContactFields {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if err := decodeField(&req, k, raw); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, apperror.BadRequest(typeMessage(typeErr))
			}
			return nil, apperror.BadRequest(msgInvalidJSON)
		}
	}
	req.Normalize()

	if err := uc.validate.Struct(&req); err != nil {
		return nil, apperror.BadRequest(validation.FirstMessage(err))
	}

	var unknown []string
	for _, k := range keys {
		if !slices.Contains(domain.ContactFields, k) && !slices.Contains(unknown, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		quoted := make([]string, len(unknown))
		for i, k := range unknown {
			quoted[i] = "'" + k + "'"
		}
		return nil, apperror.BadRequest("Unrecognized key(s) in object: " + strings.Join(quoted, ", "))
	}

	return &req, nil
}

// decodeField decodes one member of the body into req by its JSON name.
func decodeField(req *domain.ContactRequest, key string, raw json.RawMessage) error {
	wrapped := make([]byte, 0, len(key)+len(raw)+4)
	wrapped = append(wrapped, '{', '"')
	wrapped = append(wrapped, key...)
	wrapped = append(wrapped, '"', ':')
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')
	return json.Unmarshal(wrapped, req)
}

// objectFields returns the top-level keys of a JSON object in document order
// and the raw value of each. A repeated key keeps its last value. Anything
// other than a single object is an error.
func objectFields(body []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("body is not a JSON object")
	}

	var keys []string
	fields := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("object key is not a string")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if dec.More() {
		return nil, nil, errors.New("trailing data after object")
	}
	return keys, fields, nil
}

func typeMessage(e *json.UnmarshalTypeError) string {
	received := strings.Fields(e.Value)
	got := "unknown"
	if len(received) > 0 {
		got = received[0]
	}
	if got == "bool" {
		got = "boolean"
	}

	switch e.Type.Kind() {
	case reflect.String:
		return fmt.Sprintf("Expected string, received %s", got)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if got == "number" {
			return "Expected integer, received float"
		}
		return fmt.Sprintf("Expected number, received %s", got)
	default:
		return fmt.Sprintf("Invalid %s", e.Field)
	}
}
