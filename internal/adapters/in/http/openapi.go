package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"marketplace/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

//go:embed openapi.json
var openAPIDocument []byte

var registerDocOnce sync.Once

// APIDocument is the loaded and validated OpenAPI description of the HTTP API.
// It serves the Swagger UI and checks request bodies against its schemas.
type APIDocument struct {
	doc *openapi3.T
	raw string
}

// LoadAPIDocument parses the embedded document, validates it and registers it
// with swag so echo-swagger can serve it under /swagger/.
func LoadAPIDocument(ctx context.Context) (*APIDocument, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	d := &APIDocument{doc: doc, raw: string(openAPIDocument)}
	registerDocOnce.Do(func() {
		swag.Register(swag.Name, d)
	})
	return d, nil
}

// ReadDoc implements swag.Swagger.
func (d *APIDocument) ReadDoc() string {
	return d.raw
}

// ValidateBody checks a JSON body against a component schema.
func (d *APIDocument) ValidateBody(schema string, raw []byte) error {
	ref, ok := d.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema %q is not declared", schema)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	if err := ref.Value.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return nil
}
