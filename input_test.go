package postapi

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCheckKeys(t *testing.T) {
	tests := []struct {
		body  string
		field string
	}{
		{`{"author": "a", "title": "t", "content": "c"}`, ""},
		{`{"title": {"nested": {"Title": 1}}}`, ""},
		{`{"Title": "t"}`, "Title"},
		{`{"author": "a", "AUTHOR": "b"}`, "AUTHOR"},
		{`{"title": "t", "title": "u"}`, "title"},
		{`{"id": "x"}`, "id"},
		{`["title"]`, ""},
		{`{"title": `, ""},
		{``, ""},
	}
	for _, tt := range tests {
		err := checkKeys([]byte(tt.body), createKeys)
		if tt.field == "" {
			if err != nil {
				t.Errorf("checkKeys(%s) = %v, want nil", tt.body, err)
			}
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("checkKeys(%s) = %v, want ValidationError", tt.body, err)
			continue
		}
		if ve.Field != tt.field {
			t.Errorf("checkKeys(%s) field = %q, want %q", tt.body, ve.Field, tt.field)
		}
	}
}

func TestOptionalStringValueClearsNull(t *testing.T) {
	var o OptionalString
	if err := json.Unmarshal([]byte(`null`), &o); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !o.Null {
		t.Fatalf("Null = false after null, want true")
	}
	if err := json.Unmarshal([]byte(`"x"`), &o); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if o.Null {
		t.Errorf("Null = true after a value, want false")
	}
	if p := o.ptr(); p == nil || *p != "x" {
		t.Errorf("ptr() = %v, want \"x\"", p)
	}
}
