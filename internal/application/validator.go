package application

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

// ValidateResponse checks a review API payload for structural validity and
// extracts the item list and the server's continuation cursor. Every failure
// is a *model.ProtocolError. It has no side effects.
func ValidateResponse(raw []byte) (model.ValidatedResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.ValidatedResponse{}, model.NewProtocolError("response is not a JSON object", err)
	}
	if fields == nil {
		return model.ValidatedResponse{}, model.NewProtocolError("response is null", nil)
	}

	if v, ok := fields["error"]; ok {
		return model.ValidatedResponse{}, model.NewProtocolError(errorFieldMessage(v), nil)
	}
	if v, ok := fields["code"]; ok {
		return model.ValidatedResponse{}, model.NewProtocolError(codeFieldMessage(v, fields["message"]), nil)
	}

	rawItems, ok := fields["homeworks"]
	if !ok || isNull(rawItems) {
		return model.ValidatedResponse{}, model.NewProtocolError("response has no homeworks list", nil)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawItems, &elems); err != nil {
		return model.ValidatedResponse{}, model.NewProtocolError("homeworks is not a list", err)
	}

	items := make([]model.ReviewItem, 0, len(elems))
	for i, elem := range elems {
		if !isObject(elem) {
			return model.ValidatedResponse{}, model.NewProtocolError(
				fmt.Sprintf("homeworks[%d] is not an object", i), nil)
		}
		var item model.ReviewItem
		if err := json.Unmarshal(elem, &item); err != nil {
			return model.ValidatedResponse{}, model.NewProtocolError(
				fmt.Sprintf("decode homeworks[%d]", i), err)
		}
		items = append(items, item)
	}

	var next *int64
	if v, ok := fields["current_date"]; ok && !isNull(v) {
		var cursor int64
		if err := json.Unmarshal(v, &cursor); err != nil {
			return model.ValidatedResponse{}, model.NewProtocolError("current_date is not an integer", err)
		}
		next = &cursor
	}

	return model.ValidatedResponse{Items: items, NextCursor: next}, nil
}

// errorFieldMessage extracts a message from an "error" field, which the API
// sends either as {"error": "..."} or as a plain string.
func errorFieldMessage(v json.RawMessage) string {
	var nested struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(v, &nested); err == nil && nested.Error != "" {
		return nested.Error
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil && s != "" {
		return s
	}

	return "review API reported an error: " + string(bytes.TrimSpace(v))
}

// codeFieldMessage prefers the human-readable "message" field over the code.
func codeFieldMessage(code, message json.RawMessage) string {
	var s string
	if message != nil {
		if err := json.Unmarshal(message, &s); err == nil && s != "" {
			return s
		}
	}
	if err := json.Unmarshal(code, &s); err == nil && s != "" {
		return "review API error code " + s
	}
	return "review API error code " + string(bytes.TrimSpace(code))
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func isObject(v json.RawMessage) bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
