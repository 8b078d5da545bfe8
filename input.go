package postapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	createKeys = []string{"author", "title", "content"}
	updateKeys = []string{"id", "author", "title", "content"}
)

// decodeJSON strictly decodes the request body into v. The content type
// must be JSON, top-level keys must match one of keys exactly and at most
// once, and only one value may be sent.
func decodeJSON(c echo.Context, v any, keys ...string) error {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != echo.MIMEApplicationJSON {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "content type must be application/json")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return decodeError(err)
	}
	if err := checkKeys(body, keys); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return invalid("", "request body must contain a single JSON object")
	}
	return nil
}

// checkKeys rejects top-level keys that are not exactly one of allowed or
// that repeat. Bodies that are not an object are left for the struct decode
// to report.
func checkKeys(body []byte, allowed []string) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	seen := make(map[string]bool, len(allowed))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil
		}
		if !slices.Contains(allowed, key) {
			return invalid(key, "unknown field")
		}
		if seen[key] {
			return invalid(key, "appears more than once")
		}
		seen[key] = true

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
	}
	return nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var he *echo.HTTPError
	switch {
	case errors.Is(err, io.EOF):
		return invalid("", "request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return invalid("", "request body is not valid JSON")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return invalid("", "request body must be a JSON object")
		}
		return invalid(typeErr.Field, "must be a %s", typeErr.Type.Kind())
	case errors.As(err, &he):
		// BodyLimit reports an oversized body through the reader.
		return he
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return invalid(field, "unknown field")
	}
	return invalid("", "request body could not be decoded: %v", err)
}

func requireText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// validateCreate checks that every required field is present and non-blank.
func validateCreate(r CreateRequest) error {
	for _, f := range []struct{ name, value string }{
		{"author", r.Author},
		{"title", r.Title},
		{"content", r.Content},
	} {
		if err := requireText(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// validateUpdate checks the path and body ids agree, that at least one
// field is being changed and that no field is nulled out or blanked.
func validateUpdate(pathID string, r UpdateRequest) error {
	if r.ID.Set && (r.ID.Null || r.ID.Value != pathID) {
		return invalid("id", "request path id (%s) and request body id (%s) must match", pathID, r.ID.Value)
	}
	fields := []struct {
		name string
		v    OptionalString
	}{
		{"author", r.Author},
		{"title", r.Title},
		{"content", r.Content},
	}
	for _, f := range fields {
		if !f.v.Set {
			continue
		}
		if f.v.Null {
			return invalid(f.name, "must not be null")
		}
		if err := requireText(f.name, f.v.Value); err != nil {
			return err
		}
	}
	if r.fields().Empty() {
		return invalid("", "request body must set at least one of author, title, content")
	}
	return nil
}
