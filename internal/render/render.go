// Package render turns an aggregated shopping list into a downloadable document.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/pageza/foodgram/backend/internal/types"
)

//go:embed templates/*.html
var templates embed.FS

var shoppingListTemplate = template.Must(template.ParseFS(templates, "templates/shopping_list.html"))

// Document is a rendered file ready to be sent as an attachment.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

// Renderer is the document collaborator of the shopping list export.
type Renderer interface {
	Render(ctx context.Context, list *types.ShoppingList) (*Document, error)
}

// HTML renders the shopping list template.
func HTML(list *types.ShoppingList) (string, error) {
	if list == nil {
		list = &types.ShoppingList{}
	}
	var buf bytes.Buffer
	if err := shoppingListTemplate.Execute(&buf, list); err != nil {
		return "", fmt.Errorf("failed to render shopping list template: %w", err)
	}
	return buf.String(), nil
}

// TextRenderer produces a plain-text list. It needs no browser and is used
// where Chrome is unavailable.
type TextRenderer struct{}

func (TextRenderer) Render(_ context.Context, list *types.ShoppingList) (*Document, error) {
	var b strings.Builder
	b.WriteString("Shopping list")
	if list != nil && list.Owner != "" {
		b.WriteString(" for " + list.Owner)
	}
	b.WriteString("\n\n")
	if list.Empty() {
		b.WriteString("Your shopping list is empty.\n")
	} else {
		for _, item := range list.Items {
			fmt.Fprintf(&b, "- %s (%s) - %d\n", item.Name, item.MeasurementUnit, item.TotalAmount)
		}
	}
	return &Document{
		ContentType: "text/plain; charset=utf-8",
		Filename:    "shopping_list.txt",
		Body:        []byte(b.String()),
	}, nil
}
