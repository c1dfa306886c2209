package generate

import (
	"context"
	"fmt"
	"strings"
)

// StaticGenerator returns deterministic canned source without touching a
// model. Used by tests and by --offline pipeline runs.
type StaticGenerator struct {
	// Source, when set, is returned verbatim for every request.
	Source string
}

func (g *StaticGenerator) Generate(ctx context.Context, req Request) (string, error) {
	_ = ctx
	if err := req.Validate(); err != nil {
		return "", err
	}
	if g.Source != "" {
		return g.Source, nil
	}
	return fmt.Sprintf(`describe(%q, () => {
  it("loads the application", () => {
    cy.visit("/");
    cy.get("body").should("be.visible");
  });
});
`, strings.TrimSpace(req.FlowDescription)), nil
}
