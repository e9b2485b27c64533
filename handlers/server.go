// ABOUTME: Assembles the MCP server with every activity and naming tool
// ABOUTME: Also registers the activity resources and review prompts
package handlers

import (
	"github.com/harperreed/crmactivity/naming"
	"github.com/harperreed/crmactivity/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server over svc. Unique name generation asks
// checker whether a candidate is taken.
func NewServer(svc store.Service, gen *naming.Generator, checker naming.UniquenessChecker, version string) *mcp.Server {
	activityHandlers := NewActivityHandlers(svc)
	namingHandlers := NewNamingHandlers(gen, checker)
	vizHandlers := NewVizHandlers(svc)
	resourceHandlers := NewResourceHandlers(svc)
	promptHandlers := NewPromptHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crm-activity",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_principal_activity",
		Description: "List principal activity summaries with search, filters, sorting and pagination",
	}, activityHandlers.ListPrincipalActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_principal_dashboard",
		Description: "Get one principal's activity summary with distributors, product performance and recent interactions",
	}, activityHandlers.GetPrincipalDashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "principal_activity_analytics",
		Description: "Summarize engagement, activity status, regions and pipeline health for matching principals",
	}, activityHandlers.PrincipalActivityAnalytics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_update_principals",
		Description: "Apply the same status, active flag, organization type or follow-up date to several principals",
	}, activityHandlers.BatchUpdatePrincipals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_opportunity_name",
		Description: "Generate a standard opportunity name from organization, principal, context and date",
	}, namingHandlers.GenerateOpportunityName)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_opportunity_names",
		Description: "Preview generated opportunity names for several principals at once",
	}, namingHandlers.PreviewOpportunityNames)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_opportunity_name",
		Description: "Parse a generated opportunity name back into its components",
	}, namingHandlers.ParseOpportunityName)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_unique_opportunity_name",
		Description: "Generate an opportunity name, adding a numbered suffix if the name is already used",
	}, namingHandlers.GenerateUniqueOpportunityName)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_opportunity_name",
		Description: "Regenerate a generated opportunity name with some components changed",
	}, namingHandlers.UpdateOpportunityName)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_principal_graph",
		Description: "Generate a GraphViz DOT graph of a principal's network or of the principal portfolio",
	}, vizHandlers.GeneratePrincipalGraph)

	server.AddResource(&mcp.Resource{
		URI:         PrincipalsURI,
		Name:        "principals",
		Description: "First page of principal activity summaries",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         AnalyticsURI,
		Name:        "analytics",
		Description: "Activity analytics across principals",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: PrincipalURIFormat,
		Name:        "principal",
		Description: "Dashboard detail for one principal",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "principal-review",
		Description: "Review a principal's account health and suggest next steps",
		Arguments: []*mcp.PromptArgument{
			{Name: "principal_id", Description: "ID of the principal", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-plan",
		Description: "Plan outreach for principals with pending follow-ups",
	}, promptHandlers.GetPrompt)

	return server
}
