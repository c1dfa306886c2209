// Package generate is the boundary to the generative model that turns a
// flow description into browser-test source text. The returned source is
// opaque to the rest of the pipeline: it is stored and executed, never
// parsed.
package generate

import (
	"context"
	"fmt"
	"strings"
)

// Request describes one generation call.
type Request struct {
	FlowDescription string
	TestType        string
	// AppDetails is the bounded structural summary of the target repository.
	AppDetails string
	// FileName is the artifact name the test will be saved under; generators
	// that write to a working directory use it as the output file name.
	FileName string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.FlowDescription) == "" {
		return fmt.Errorf("flow description is required")
	}
	if strings.TrimSpace(r.FileName) == "" {
		return fmt.Errorf("file name is required")
	}
	return nil
}

// Generator produces test source text for a flow. One blocking call, no
// retries; transient-model failure policy belongs to the caller.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
