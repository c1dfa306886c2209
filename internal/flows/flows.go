// Package flows infers candidate user-interaction flows from a repository
// summary and loads operator-supplied flow definition files.
package flows

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/vsavkov/cypilot/internal/repo"
)

// Flow describes one candidate user-interaction flow to generate a browser
// test for.
type Flow struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	TestType    string `yaml:"test_type,omitempty" json:"test_type,omitempty"`
}

const flowsSchemaJSON = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["name", "description"],
    "additionalProperties": false,
    "properties": {
      "name": {"type": "string", "minLength": 1},
      "description": {"type": "string", "minLength": 1},
      "test_type": {"type": "string", "enum": ["e2e", "component", "smoke"]}
    }
  }
}`

var flowsSchema = mustCompileSchema(flowsSchemaJSON)

func mustCompileSchema(schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("flows.schema.json", strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return c.MustCompile("flows.schema.json")
}

// LoadFile reads a YAML flow definition file and validates it against the
// flows schema before returning the parsed flows.
func LoadFile(path string) ([]Flow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flows file: %w", err)
	}
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse flows file: %w", err)
	}
	// Round-trip through JSON so schema validation sees canonical types.
	jb, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize flows file: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jb, &doc); err != nil {
		return nil, fmt.Errorf("normalize flows file: %w", err)
	}
	if err := flowsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid flows file %s: %w", path, err)
	}
	var parsed []Flow
	if err := yaml.Unmarshal(b, &parsed); err != nil {
		return nil, fmt.Errorf("parse flows file: %w", err)
	}
	for i := range parsed {
		if strings.TrimSpace(parsed[i].TestType) == "" {
			parsed[i].TestType = "e2e"
		}
	}
	return parsed, nil
}

// Infer derives candidate flows from the summarized repository structure.
// A navigation smoke flow is always proposed; login and form flows are added
// when matching pages exist.
func Infer(sum *repo.Summary) []Flow {
	name := sum.Name
	if name == "" {
		name = "the application"
	}
	out := []Flow{
		{
			Name:        "navigation",
			Description: fmt.Sprintf("Visit the main pages of %s and assert each renders without errors.", name),
			TestType:    "e2e",
		},
	}
	if hasPageNamed(sum, "login", "signin", "sign-in", "auth") {
		out = append(out, Flow{
			Name:        "login",
			Description: "Open the login page, submit credentials, and assert the authenticated landing page loads.",
			TestType:    "e2e",
		})
	}
	if hasPageNamed(sum, "signup", "register", "sign-up") {
		out = append(out, Flow{
			Name:        "signup",
			Description: "Open the registration page, fill the form, and assert the success state.",
			TestType:    "e2e",
		})
	}
	if hasPageNamed(sum, "contact", "checkout", "cart") {
		out = append(out, Flow{
			Name:        "form-submission",
			Description: "Fill and submit the primary form and assert the confirmation state.",
			TestType:    "e2e",
		})
	}
	return out
}

func hasPageNamed(sum *repo.Summary, needles ...string) bool {
	for _, section := range sum.Sections {
		for _, entry := range section.Entries {
			lower := strings.ToLower(entry)
			for _, needle := range needles {
				if strings.Contains(lower, needle) {
					return true
				}
			}
		}
	}
	return false
}
