package lark

import (
	"encoding/json"
	"fmt"
)

// Envelope is the {code, msg, data} wrapper every server response uses to
// signal application-level success independent of HTTP status. Zero means
// success. Wrappers return it unchanged; only the documented sentinel
// helpers (uploads, reactions) collapse it into a zero value.
type Envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`

	// HTTPStatus is the raw transport status, carried alongside the parsed
	// body.
	HTTPStatus int `json:"-"`
}

// Ok reports application-level success.
func (e *Envelope) Ok() bool { return e.Code == 0 }

// Err returns nil on success, or an error carrying the server's code and
// message. It exists for callers who prefer error flow over inspecting the
// envelope; wrappers themselves never call it.
func (e *Envelope) Err() error {
	if e.Ok() {
		return nil
	}
	return fmt.Errorf("lark: code %d: %s", e.Code, e.Msg)
}

// DecodeData unmarshals the data payload into out.
func (e *Envelope) DecodeData(out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("lark: envelope has no data")
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}
	return nil
}

// ListData is the common wire shape of paginated data payloads.
type ListData[T any] struct {
	Items     []T    `json:"items"`
	HasMore   bool   `json:"has_more"`
	PageToken string `json:"page_token"`
}

// Page converts the wire payload into a Page for the pagination helper.
func (d ListData[T]) Page() Page[T] {
	return Page[T]{Items: d.Items, HasMore: d.HasMore, PageToken: d.PageToken}
}
