// ABOUTME: MCP tool handlers for opportunity name generation and parsing
// ABOUTME: Unique names are checked against existing opportunities
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/naming"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type NamingHandlers struct {
	gen     *naming.Generator
	checker naming.UniquenessChecker
}

func NewNamingHandlers(gen *naming.Generator, checker naming.UniquenessChecker) *NamingHandlers {
	return &NamingHandlers{gen: gen, checker: checker}
}

type NameOptionsInput struct {
	OrganizationName string `json:"organization_name,omitempty" jsonschema:"Customer organization name"`
	PrincipalName    string `json:"principal_name,omitempty" jsonschema:"Principal (manufacturer) name"`
	Context          string `json:"context,omitempty" jsonschema:"Opportunity context, e.g. Site Visit"`
	CustomContext    string `json:"custom_context,omitempty" jsonschema:"Free-text context; overrides context when set"`
	Date             string `json:"date,omitempty" jsonschema:"Date the name refers to (YYYY-MM-DD); defaults to today"`
}

func (in NameOptionsInput) options() models.NameGenerationOptions {
	return models.NameGenerationOptions{
		OrganizationName: in.OrganizationName,
		PrincipalName:    in.PrincipalName,
		Context:          in.Context,
		CustomContext:    in.CustomContext,
		Date:             in.Date,
	}
}

type GenerateNameOutput struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

func (h *NamingHandlers) GenerateOpportunityName(_ context.Context, req *mcp.CallToolRequest, input NameOptionsInput) (*mcp.CallToolResult, GenerateNameOutput, error) {
	opts := input.options()
	return &mcp.CallToolResult{}, GenerateNameOutput{
		Name:     h.gen.GenerateName(opts),
		Template: h.gen.GenerateTemplate(opts),
	}, nil
}

type PreviewNamesInput struct {
	Options    NameOptionsInput      `json:"options" jsonschema:"Options shared by every preview; principal_name is replaced per principal"`
	Principals []models.PrincipalRef `json:"principals" jsonschema:"Principals to preview names for"`
}

type PreviewNamesOutput struct {
	Previews []models.NamePreview `json:"previews"`
	Count    int                  `json:"count"`
}

func (h *NamingHandlers) PreviewOpportunityNames(_ context.Context, req *mcp.CallToolRequest, input PreviewNamesInput) (*mcp.CallToolResult, PreviewNamesOutput, error) {
	if len(input.Principals) == 0 {
		return nil, PreviewNamesOutput{}, fmt.Errorf("principals is required")
	}
	previews := h.gen.GenerateBatchPreviews(input.Options.options(), input.Principals)
	return &mcp.CallToolResult{}, PreviewNamesOutput{Previews: previews, Count: len(previews)}, nil
}

type ParseNameInput struct {
	Name     string `json:"name" jsonschema:"Opportunity name to parse"`
	Template string `json:"template" jsonschema:"Template the name was generated from"`
}

type ParseNameOutput struct {
	AutoGenerated bool               `json:"auto_generated"`
	Parsed        *models.ParsedName `json:"parsed,omitempty"`
}

func (h *NamingHandlers) ParseOpportunityName(_ context.Context, req *mcp.CallToolRequest, input ParseNameInput) (*mcp.CallToolResult, ParseNameOutput, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Template) == "" {
		return nil, ParseNameOutput{}, fmt.Errorf("name and template are required")
	}
	parsed := naming.Parse(input.Name, input.Template)
	return &mcp.CallToolResult{}, ParseNameOutput{AutoGenerated: parsed != nil, Parsed: parsed}, nil
}

func (h *NamingHandlers) GenerateUniqueOpportunityName(ctx context.Context, req *mcp.CallToolRequest, input NameOptionsInput) (*mcp.CallToolResult, GenerateNameOutput, error) {
	opts := input.options()
	name, err := h.gen.GenerateUniqueName(ctx, opts, h.checker)
	if err != nil {
		return nil, GenerateNameOutput{}, err
	}
	return &mcp.CallToolResult{}, GenerateNameOutput{
		Name:     name,
		Template: h.gen.GenerateTemplate(opts),
	}, nil
}

type UpdateNameInput struct {
	CurrentName string           `json:"current_name" jsonschema:"Existing opportunity name"`
	Template    string           `json:"template" jsonschema:"Template the existing name was generated from"`
	Updates     NameOptionsInput `json:"updates" jsonschema:"Components to change; empty fields keep their parsed value"`
}

type UpdateNameOutput struct {
	Name          string `json:"name"`
	AutoGenerated bool   `json:"auto_generated"`
}

func (h *NamingHandlers) UpdateOpportunityName(_ context.Context, req *mcp.CallToolRequest, input UpdateNameInput) (*mcp.CallToolResult, UpdateNameOutput, error) {
	return &mcp.CallToolResult{}, UpdateNameOutput{
		Name:          h.gen.UpdateAutoGenerated(input.CurrentName, input.Template, input.Updates.options()),
		AutoGenerated: naming.IsAutoGenerated(input.CurrentName, input.Template),
	}, nil
}
