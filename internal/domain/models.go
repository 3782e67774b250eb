// Package domain contains the core domain types for the catalog translator.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DatasetItem is one product-like record of an external dataset.
// Title and Content are rewritten in place by the pipeline; every other
// field is passed through untouched.
type DatasetItem struct {
	Title     string          `json:"title"`
	Content   *string         `json:"content,omitempty"`
	Thumbnail json.RawMessage `json:"thumbnail,omitempty"`
	Images    json.RawMessage `json:"images,omitempty"`
	Price     json.RawMessage `json:"price,omitempty"`
	SKU       json.RawMessage `json:"sku,omitempty"`

	// Extra holds fields the pipeline does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownItemFields = map[string]bool{
	"title": true, "content": true, "thumbnail": true,
	"images": true, "price": true, "sku": true,
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (it *DatasetItem) UnmarshalJSON(data []byte) error {
	type plain DatasetItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if knownItemFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}

	*it = DatasetItem(p)
	return nil
}

// MarshalJSON encodes the known fields merged with Extra.
func (it DatasetItem) MarshalJSON() ([]byte, error) {
	type plain DatasetItem
	known, err := json.Marshal(plain(it))
	if err != nil {
		return nil, err
	}
	if len(it.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(it.Extra)+6)
	for k, v := range it.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// HasContent reports whether the item carries an HTML body.
func (it DatasetItem) HasContent() bool {
	return it.Content != nil && *it.Content != ""
}

// Subset returns the item reduced to the fixed field set returned when a
// caller opts out of translation.
func (it DatasetItem) Subset() DatasetItem {
	it.Extra = nil
	return it
}

// TextNodeRef ties an extracted string back to the item it came from and to
// its position among that item's text nodes.
type TextNodeRef struct {
	Item int `json:"item"`
	Node int `json:"node"`
}

// TranslationRun is the positional result of one scheduled translation.
// Texts and Filled have the length of the input; positions belonging to a
// dropped batch keep an empty string and Filled[i] == false.
type TranslationRun struct {
	Texts   []string
	Filled  []bool
	Dropped []*BatchDroppedError
}

// NewTranslationRun allocates an empty run for n positions.
func NewTranslationRun(n int) TranslationRun {
	return TranslationRun{
		Texts:  make([]string, n),
		Filled: make([]bool, n),
	}
}

// Text returns the translated string at pos, if one was produced.
func (r TranslationRun) Text(pos int) (string, bool) {
	if pos < 0 || pos >= len(r.Texts) || !r.Filled[pos] {
		return "", false
	}
	return r.Texts[pos], true
}

// Complete reports whether every position was filled.
func (r TranslationRun) Complete() bool {
	return len(r.Dropped) == 0
}

// Err joins the errors of all dropped batches, or returns nil.
func (r TranslationRun) Err() error {
	if len(r.Dropped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Dropped))
	for i, d := range r.Dropped {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// ProductID accepts both numeric and string identifiers.
type ProductID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// ProductRecord is a product returned by the product lookup service.
// Values is either a JSON object or a JSON string holding one.
type ProductRecord struct {
	ID     ProductID       `json:"id"`
	SKU    string          `json:"sku"`
	Values json.RawMessage `json:"values,omitempty"`
}

// Identifier returns the SKU, falling back to the id.
func (p ProductRecord) Identifier() string {
	if p.SKU != "" {
		return p.SKU
	}
	return string(p.ID)
}

// ProductOutcome is the per-product result of a localization run.
type ProductOutcome struct {
	ID          string `json:"id"`
	SKU         string `json:"sku,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}
