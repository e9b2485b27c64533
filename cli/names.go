// ABOUTME: Opportunity naming CLI commands
// ABOUTME: Generate, template, preview, parse, unique and update opportunity names
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/naming"
)

// NamesGenerateCommand prints a generated opportunity name.
func NamesGenerateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("names generate", flag.ContinueOnError)
	nf := addNameFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(app.Out, app.Namer.GenerateName(nf.options()))
	return nil
}

// NamesTemplateCommand prints the template a name would be generated from.
func NamesTemplateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("names template", flag.ContinueOnError)
	nf := addNameFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(app.Out, app.Namer.GenerateTemplate(nf.options()))
	return nil
}

// NamesPreviewCommand previews names for several principals. Principals are
// given as id=name pairs; a bare name uses itself as the id.
func NamesPreviewCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("names preview", flag.ContinueOnError)
	nf := addNameFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("at least one principal required (id=name)")
	}

	var principals []models.PrincipalRef
	for _, arg := range fs.Args() {
		id, name, ok := strings.Cut(arg, "=")
		if !ok {
			name = id
		}
		principals = append(principals, models.PrincipalRef{ID: id, Name: name})
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRINCIPAL\tNAME")
	_, _ = fmt.Fprintln(w, "---------\t----")
	for _, p := range app.Namer.GenerateBatchPreviews(nf.options(), principals) {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", p.PrincipalName, p.GeneratedName)
	}
	return w.Flush()
}

// NamesParseCommand splits a generated name back into its components.
func NamesParseCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("names parse", flag.ContinueOnError)
	template := fs.String("template", "", "Template the name was generated from (default: inferred from the segment count)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("name required")
	}

	name := strings.Join(fs.Args(), " ")
	parsed := naming.Parse(name, templateFor(name, *template))
	if parsed == nil {
		return fmt.Errorf("%q does not match the template", name)
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Organization:\t%s\n", parsed.Organization)
	_, _ = fmt.Fprintf(w, "Principal:\t%s\n", parsed.Principal)
	_, _ = fmt.Fprintf(w, "Context:\t%s\n", parsed.Context)
	_, _ = fmt.Fprintf(w, "Month:\t%s %s\n", parsed.Month, parsed.Year)
	return w.Flush()
}

// NamesUniqueCommand prints a generated name not yet used by any opportunity.
func NamesUniqueCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("names unique", flag.ContinueOnError)
	nf := addNameFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	name, err := app.Namer.GenerateUniqueName(context.Background(), nf.options(), app.Service)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(app.Out, name)
	return nil
}

// NamesUpdateCommand regenerates an auto-generated name with new components.
// Names that were edited by hand are printed unchanged.
func NamesUpdateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("names update", flag.ContinueOnError)
	nf := addNameFlags(fs)
	template := fs.String("template", "", "Template the name was generated from (default: inferred from the segment count)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("current name required")
	}

	current := strings.Join(fs.Args(), " ")
	_, _ = fmt.Fprintln(app.Out, app.Namer.UpdateAutoGenerated(current, templateFor(current, *template), nf.options()))
	return nil
}

// templateFor returns template, or the standard template with the same
// number of segments as name.
func templateFor(name, template string) string {
	if template != "" {
		return template
	}
	dated := naming.PlaceholderMonth + " " + naming.PlaceholderYear
	switch len(strings.Split(name, naming.Separator)) {
	case 4:
		return strings.Join([]string{naming.PlaceholderOrganization, naming.PlaceholderPrincipal, naming.PlaceholderContext, dated}, naming.Separator)
	case 3:
		return strings.Join([]string{naming.PlaceholderOrganization, naming.PlaceholderPrincipal, dated}, naming.Separator)
	default:
		return ""
	}
}
