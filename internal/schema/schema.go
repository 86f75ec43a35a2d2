// Package schema checks the overall shape of a CV input document before the
// model is built: known top-level keys, header fields and their types.
// Field contents are validated later by the model.
package schema

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/ordered"
)

//go:embed cv.schema.json
var source string

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
})

// Source returns the JSON schema document.
func Source() string { return source }

var indexSegment = regexp.MustCompile(`\.(\d+)(\.|$)`)

// Validate checks doc against the input schema and returns one
// ValidationError per violation, with paths such as
// "cv.social_networks[0].network". A nil result means the shape is valid.
func Validate(doc ordered.Map) (diag.Errors, error) {
	s, err := compiled()
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(ordered.Plain(doc)))
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	var errs diag.Errors
	for _, desc := range result.Errors() {
		errs = append(errs, convert(desc))
	}
	return errs, nil
}

func convert(desc gojsonschema.ResultError) *diag.ValidationError {
	path := fieldPath(desc.Field())
	switch desc.Type() {
	case "additional_property_not_allowed":
		return diag.New(diag.Join(path, property(desc)), "unrecognized field")
	case "required":
		return diag.New(diag.Join(path, property(desc)), "missing required field")
	case "invalid_type":
		return diag.Newf(path, "must be %v, got %v", desc.Details()["expected"], desc.Details()["given"])
	}
	return diag.New(path, desc.Description())
}

func property(desc gojsonschema.ResultError) string {
	p, _ := desc.Details()["property"].(string)
	return p
}

// fieldPath turns gojsonschema's "a.0.b" into "a[0].b" and "(root)" into "".
func fieldPath(field string) string {
	if field == "(root)" {
		return ""
	}
	for indexSegment.MatchString(field) {
		field = indexSegment.ReplaceAllString(field, "[$1]$2")
	}
	return field
}
