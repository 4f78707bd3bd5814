// CLAUDE:SUMMARY ImportHTML: convert an HTML document through docpipe and append the parts to a page's draft.
package site

import (
	"context"
	"fmt"

	"github.com/hazyhaar/arbo/docpipe"
	"github.com/hazyhaar/arbo/site/internal/tree"
)

// ImportHTML converts an HTML document to markdown parts and appends them
// to the page's draft, one component per heading-delimited section. The
// page itself is untouched; nothing is published. Returns the created
// components in draft order.
//
// All-or-nothing: the document is converted and validated before any
// component is created, and component creation cannot fail for a page
// that was just found, so a conversion error leaves the draft unchanged.
func (svc *Service) ImportHTML(ctx context.Context, pageID, rawHTML string) ([]*Component, error) {
	if _, err := svc.tree.GetPage(pageID); err != nil {
		return nil, err
	}

	doc, err := docpipe.Convert(rawHTML, docpipe.Config{Logger: svc.logger})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()

	created := make([]*Component, 0, len(doc.Parts))
	for _, part := range doc.Parts {
		c, err := svc.tree.CreateComponent(pageID, part.Title, part.Body, "", "markdown", tree.AppendPos)
		if err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "import_html", fmt.Sprintf(`{"page_id":%q,"parts":%d}`, pageID, len(created)))
	svc.event(ctx, "page", pageID, "import_html")
	return created, nil
}
