package imgur

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Image mirrors the Imgur image model. Fields the API omits or nulls
// depending on resource state are pointers.
type Image struct {
	ID          string     `json:"id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Datetime    int64      `json:"datetime"`
	Type        string     `json:"type,omitempty"`
	Animated    bool       `json:"animated"`
	Width       uint64     `json:"width"`
	Height      uint64     `json:"height"`
	Size        uint64     `json:"size"`
	Views       uint64     `json:"views"`
	Bandwidth   uint64     `json:"bandwidth"`
	Vote        *string    `json:"vote"`
	Favorite    bool       `json:"favorite"`
	NSFW        *bool      `json:"nsfw"`
	Section     *string    `json:"section"`
	AccountURL  *string    `json:"account_url"`
	AccountID   *AccountID `json:"account_id"`
	IsAd        bool       `json:"is_ad"`
	InMostViral bool       `json:"in_most_viral"`
	InGallery   bool       `json:"in_gallery"`
	HasSound    bool       `json:"has_sound,omitempty"`
	Tags        []string   `json:"tags"`
	AdType      uint64     `json:"ad_type"`
	AdURL       string     `json:"ad_url"`
	DeleteHash  *string    `json:"deletehash,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Link        string     `json:"link"`
	MP4         *string    `json:"mp4,omitempty"`
	GIFV        *string    `json:"gifv,omitempty"`
}

// identityFields must be present on every image and album. Empty strings
// count as present.
type identityFields struct {
	ID   *string `json:"id" validate:"required"`
	Link *string `json:"link" validate:"required"`
}

// requireFields decodes raw into the presence struct dst and checks its
// required tags.
func requireFields(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return shapeValidator.Struct(dst)
}

// UnmarshalJSON rejects objects without an id or link.
func (img *Image) UnmarshalJSON(raw []byte) error {
	if err := requireFields(raw, &identityFields{}); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	type plain Image
	return json.Unmarshal(raw, (*plain)(img))
}

// Album mirrors the Imgur album model. Images is nil unless the API inlined them.
type Album struct {
	ID          string     `json:"id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Datetime    int64      `json:"datetime"`
	Cover       *string    `json:"cover"`
	CoverWidth  *uint64    `json:"cover_width"`
	CoverHeight *uint64    `json:"cover_height"`
	AccountURL  *string    `json:"account_url"`
	AccountID   *AccountID `json:"account_id"`
	Privacy     *string    `json:"privacy"`
	Layout      *string    `json:"layout"`
	Views       uint64     `json:"views"`
	Link        string     `json:"link"`
	Favorite    bool       `json:"favorite"`
	NSFW        *bool      `json:"nsfw"`
	Section     *string    `json:"section"`
	ImagesCount uint64     `json:"images_count"`
	InGallery   bool       `json:"in_gallery"`
	IsAd        bool       `json:"is_ad"`
	DeleteHash  *string    `json:"deletehash,omitempty"`
	Images      []Image    `json:"images"`
}

// UnmarshalJSON rejects objects without an id or link.
func (a *Album) UnmarshalJSON(raw []byte) error {
	if err := requireFields(raw, &identityFields{}); err != nil {
		return fmt.Errorf("album: %w", err)
	}
	type plain Album
	return json.Unmarshal(raw, (*plain)(a))
}

// AccountID is an account identifier. The API sends it as a number or a string.
type AccountID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (a *AccountID) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*a = AccountID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("account_id: %w", err)
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return fmt.Errorf("account_id %q is not a non-negative integer", n.String())
	}
	*a = AccountID(n.String())
	return nil
}

// APIError is a failure reported by the Imgur API inside a decoded envelope.
type APIError struct {
	Message string `json:"error"`
	Request string `json:"request"`
	Method  string `json:"method"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Request %s %s failed: %s", e.Method, e.Request, e.Message)
}

// UnmarshalJSON requires error, request and method to be present; any of
// them may be empty. The message is a string or an object carrying a
// message field, which some endpoints return.
func (e *APIError) UnmarshalJSON(raw []byte) error {
	var wire struct {
		Error   json.RawMessage `json:"error" validate:"required"`
		Request *string         `json:"request" validate:"required"`
		Method  *string         `json:"method" validate:"required"`
	}
	if err := requireFields(raw, &wire); err != nil {
		return fmt.Errorf("api error: %w", err)
	}

	msg, err := decodeErrorMessage(wire.Error)
	if err != nil {
		return err
	}
	*e = APIError{Message: msg, Request: *wire.Request, Method: *wire.Method}
	return nil
}

func decodeErrorMessage(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("error field is null")
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("error field: %w", err)
	}
	return obj.Message, nil
}
