package postapi

import (
	"encoding/json"

	"github.com/eringen/postapi/store"
)

// CreateRequest is the body of POST /posts. All fields are required.
type CreateRequest struct {
	Author  string `json:"author"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateRequest is the body of PUT /posts/:id. Every field is optional;
// ID, when present, must match the path.
type UpdateRequest struct {
	ID      OptionalString `json:"id"`
	Author  OptionalString `json:"author"`
	Title   OptionalString `json:"title"`
	Content OptionalString `json:"content"`
}

// OptionalString records whether a JSON field was present and whether it
// was an explicit null.
type OptionalString struct {
	Value string
	Set   bool
	Null  bool
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o OptionalString) ptr() *string {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

func (r CreateRequest) post() store.Post {
	return store.Post{
		Author:  r.Author,
		Title:   r.Title,
		Content: r.Content,
	}
}

func (r UpdateRequest) fields() store.Fields {
	return store.Fields{
		Author:  r.Author.ptr(),
		Title:   r.Title.ptr(),
		Content: r.Content.ptr(),
	}
}
