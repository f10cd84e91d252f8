package imgur

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var shapeValidator = validator.New()

// Envelope is the wrapper Imgur puts around every response.
type Envelope[T any] struct {
	Status  int     `json:"status"`
	Success bool    `json:"success"`
	Data    Data[T] `json:"data"`

	// op and url are set by Fetch so Result can attribute API errors.
	op, url string
}

// Result collapses the envelope into the payload or an *Error of kind KindAPI.
func (e *Envelope[T]) Result() (T, error) {
	var zero T
	if e == nil {
		return zero, &Error{Kind: KindDecode, Err: errors.New("nil envelope")}
	}
	if v, ok := e.Data.Payload(); ok {
		return v, nil
	}
	if apiErr, ok := e.Data.APIError(); ok {
		return zero, &Error{Kind: KindAPI, Op: e.op, URL: e.url, StatusCode: e.Status, API: apiErr}
	}
	return zero, &Error{Kind: KindDecode, Op: e.op, URL: e.url, StatusCode: e.Status, Err: errors.New("envelope data is empty")}
}

// Data holds either a payload of type T or an APIError, never both.
type Data[T any] struct {
	payload T
	apiErr  *APIError
	set     bool
}

// NewPayload returns Data holding v.
func NewPayload[T any](v T) Data[T] {
	return Data[T]{payload: v, set: true}
}

// NewAPIError returns Data holding the given API error.
func NewAPIError[T any](e APIError) Data[T] {
	return Data[T]{apiErr: &e, set: true}
}

// Payload reports the payload when the data matched T.
func (d Data[T]) Payload() (T, bool) {
	if !d.set || d.apiErr != nil {
		var zero T
		return zero, false
	}
	return d.payload, true
}

// APIError reports the API error when the data matched the error shape.
func (d Data[T]) APIError() (*APIError, bool) {
	if d.apiErr == nil {
		return nil, false
	}
	cp := *d.apiErr
	return &cp, true
}

// IsPayload reports whether the data matched T.
func (d Data[T]) IsPayload() bool {
	_, ok := d.Payload()
	return ok
}

// UnmarshalJSON resolves raw by shape; see decodeData.
func (d *Data[T]) UnmarshalJSON(raw []byte) error {
	out, err := decodeData[T](raw)
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON writes whichever variant is held.
func (d Data[T]) MarshalJSON() ([]byte, error) {
	if d.apiErr != nil {
		return json.Marshal(d.apiErr)
	}
	if !d.set {
		return []byte("null"), nil
	}
	return json.Marshal(d.payload)
}

// DecodeEnvelope parses body into an Envelope[T]. Malformed JSON, or data
// matching neither T nor APIError, is reported as an error; zero values are
// never returned silently.
func DecodeEnvelope[T any](body []byte) (*Envelope[T], error) {
	var wire struct {
		Status  int             `json:"status"`
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	data, err := decodeData[T](wire.Data)
	if err != nil {
		return nil, err
	}
	return &Envelope[T]{Status: wire.Status, Success: wire.Success, Data: data}, nil
}

// decodeData tries T first, then APIError. The first shape that unmarshals
// wins; Image, Album and APIError reject objects missing their required
// fields, so the two never overlap.
func decodeData[T any](raw json.RawMessage) (Data[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Data[T]{}, errors.New("decode data: missing or null")
	}

	var payload T
	payloadErr := json.Unmarshal(raw, &payload)
	if payloadErr == nil {
		return NewPayload(payload), nil
	}

	var apiErr APIError
	apiErrErr := json.Unmarshal(raw, &apiErr)
	if apiErrErr == nil {
		return NewAPIError[T](apiErr), nil
	}

	return Data[T]{}, fmt.Errorf("decode data: no shape matched: %w", errors.Join(
		fmt.Errorf("as %s: %w", typeName[T](), payloadErr),
		fmt.Errorf("as api error: %w", apiErrErr),
	))
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
