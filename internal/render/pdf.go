package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/types"
)

// PDFRenderer prints the HTML shopping list to PDF with headless Chrome.
type PDFRenderer struct {
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewPDFRenderer(timeout time.Duration, log logrus.FieldLogger) *PDFRenderer {
	return &PDFRenderer{timeout: timeout, log: log}
}

// Available reports whether a Chrome instance can be started.
func (r *PDFRenderer) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	chromedpCtx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	return chromedp.Run(chromedpCtx, chromedp.Navigate("about:blank"))
}

func (r *PDFRenderer) Render(ctx context.Context, list *types.ShoppingList) (*Document, error) {
	if list == nil {
		list = &types.ShoppingList{}
	}
	html, err := HTML(list)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	chromedpCtx, cancelChrome := chromedp.NewContext(ctx, chromedp.WithLogf(r.log.Debugf))
	defer cancelChrome()

	var pdf []byte
	start := time.Now()
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print shopping list: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"items":    len(list.Items),
		"bytes":    len(pdf),
		"duration": time.Since(start),
	}).Debug("rendered shopping list pdf")

	return &Document{
		ContentType: "application/pdf",
		Filename:    "shopping_list.pdf",
		Body:        pdf,
	}, nil
}
