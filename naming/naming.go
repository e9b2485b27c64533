// ABOUTME: Opportunity name generation, templating and parsing
// ABOUTME: Names join organization, principal, context and month/year with " - "
package naming

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/harperreed/crmactivity/models"
)

// Separator joins the segments of a generated name.
const Separator = " - "

// Template placeholders.
const (
	PlaceholderOrganization = "{{organization}}"
	PlaceholderPrincipal    = "{{principal}}"
	PlaceholderContext      = "{{context}}"
	PlaceholderMonth        = "{{month}}"
	PlaceholderYear         = "{{year}}"
)

const dateLayout = "2006-01-02"

// segmentSplit matches a dash with whitespace on both sides, so hyphenated
// words like "Co-op" stay in one segment.
var segmentSplit = regexp.MustCompile(`\s+-\s+`)

// spacedDash matches a dash touching whitespace. Inside a component it is
// folded to a bare hyphen so the component never contains Separator.
var spacedDash = regexp.MustCompile(`\s+-\s*|\s*-\s+`)

var monthPattern = func() string {
	names := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		names[m-1] = m.String()
	}
	return "(?:" + strings.Join(names, "|") + ")"
}()

// Generator builds opportunity names. The clock supplies the date when
// options carry none.
type Generator struct {
	now func() time.Time
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateName builds "Organization - Principal - Context - Month Year".
// Empty organization, principal or context segments are left out.
func (g *Generator) GenerateName(opts models.NameGenerationOptions) string {
	var segments []string
	if org := CleanComponent(opts.OrganizationName); org != "" {
		segments = append(segments, org)
	}
	if principal := CleanComponent(opts.PrincipalName); principal != "" {
		segments = append(segments, principal)
	}
	if ctx := resolveContext(opts); ctx != "" {
		segments = append(segments, ctx)
	}
	segments = append(segments, g.resolveDate(opts.Date).Format("January 2006"))
	return strings.Join(segments, Separator)
}

// GenerateTemplate mirrors GenerateName with placeholders for the
// organization, principal, month and year. The context stays literal.
func (g *Generator) GenerateTemplate(opts models.NameGenerationOptions) string {
	var segments []string
	if CleanComponent(opts.OrganizationName) != "" {
		segments = append(segments, PlaceholderOrganization)
	}
	if CleanComponent(opts.PrincipalName) != "" {
		segments = append(segments, PlaceholderPrincipal)
	}
	if ctx := resolveContext(opts); ctx != "" {
		segments = append(segments, ctx)
	}
	segments = append(segments, PlaceholderMonth+" "+PlaceholderYear)
	return strings.Join(segments, Separator)
}

// GenerateBatchPreviews generates a name per principal, sharing every other
// option, in input order.
func (g *Generator) GenerateBatchPreviews(base models.NameGenerationOptions, principals []models.PrincipalRef) []models.NamePreview {
	previews := make([]models.NamePreview, 0, len(principals))
	for _, p := range principals {
		opts := base
		opts.PrincipalName = p.Name
		previews = append(previews, models.NamePreview{
			PrincipalID:   p.ID,
			PrincipalName: p.Name,
			GeneratedName: g.GenerateName(opts),
			NameTemplate:  g.GenerateTemplate(opts),
		})
	}
	return previews
}

// IsAutoGenerated reports whether name has the shape template describes.
func IsAutoGenerated(name, template string) bool {
	return Parse(name, template) != nil
}

// Parse recovers the components of a name generated from template. It
// returns nil when the segment count or a literal segment differs.
func Parse(name, template string) *models.ParsedName {
	nameSegments := splitSegments(name)
	templateSegments := splitSegments(template)
	if len(nameSegments) == 0 || len(nameSegments) != len(templateSegments) {
		return nil
	}

	parsed := &models.ParsedName{}
	for i, tmpl := range templateSegments {
		seg := nameSegments[i]

		if !strings.Contains(tmpl, "{{") {
			if seg != tmpl {
				return nil
			}
			parsed.Context = tmpl
			continue
		}

		pattern := segmentPattern(tmpl)
		m := pattern.FindStringSubmatch(seg)
		if m == nil {
			return nil
		}
		for j, group := range pattern.SubexpNames() {
			switch group {
			case "organization":
				parsed.Organization = m[j]
			case "principal":
				parsed.Principal = m[j]
			case "context":
				parsed.Context = m[j]
			case "month":
				parsed.Month = m[j]
			case "year":
				parsed.Year = m[j]
			}
		}
	}

	if parsed.Month != "" && parsed.Year != "" {
		if t, err := time.Parse("January 2006", parsed.Month+" "+parsed.Year); err == nil {
			parsed.Date = t
		}
	}
	return parsed
}

// UpdateAutoGenerated regenerates currentName with updates merged over its
// parsed components. Names that do not parse are replaced by a fresh name
// generated from updates alone.
func (g *Generator) UpdateAutoGenerated(currentName, template string, updates models.NameGenerationOptions) string {
	parsed := Parse(currentName, template)
	if parsed == nil {
		return g.GenerateName(updates)
	}

	merged := models.NameGenerationOptions{
		OrganizationName: parsed.Organization,
		PrincipalName:    parsed.Principal,
		Context:          parsed.Context,
	}
	if !parsed.Date.IsZero() {
		merged.Date = parsed.Date.Format(dateLayout)
	}

	if updates.OrganizationName != "" {
		merged.OrganizationName = updates.OrganizationName
	}
	if updates.PrincipalName != "" {
		merged.PrincipalName = updates.PrincipalName
	}
	if updates.CustomContext != "" {
		merged.Context = updates.CustomContext
	} else if updates.Context != "" {
		merged.Context = updates.Context
	}
	if updates.Date != "" {
		merged.Date = updates.Date
	}
	return g.GenerateName(merged)
}

// CleanComponent trims and collapses whitespace and drops every character
// other than letters, digits, spaces, '&', '-' and '.'. A dash with
// whitespace around it becomes a bare hyphen.
func CleanComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		// '.' is kept so suffixes like "Inc." survive.
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '&', r == '-', r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return foldDashes(collapse(b.String()))
}

func resolveContext(opts models.NameGenerationOptions) string {
	if c := foldDashes(collapse(opts.CustomContext)); c != "" {
		return c
	}
	return foldDashes(collapse(opts.Context))
}

func foldDashes(s string) string {
	return spacedDash.ReplaceAllString(s, "-")
}

func (g *Generator) resolveDate(date string) time.Time {
	date = strings.TrimSpace(date)
	if date != "" {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			return t
		}
		if t, err := time.Parse(dateLayout, date); err == nil {
			return t
		}
	}
	return g.now()
}

func splitSegments(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	parts := segmentSplit.Split(name, -1)
	for i, p := range parts {
		parts[i] = collapse(p)
	}
	return parts
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var placeholderGroups = strings.NewReplacer(
	regexp.QuoteMeta(PlaceholderOrganization), `(?P<organization>.+)`,
	regexp.QuoteMeta(PlaceholderPrincipal), `(?P<principal>.+)`,
	regexp.QuoteMeta(PlaceholderContext), `(?P<context>.+)`,
	regexp.QuoteMeta(PlaceholderMonth), `(?P<month>`+monthPattern+`)`,
	regexp.QuoteMeta(PlaceholderYear), `(?P<year>\d{4})`,
)

// segmentPattern compiles one template segment into an anchored pattern.
func segmentPattern(tmpl string) *regexp.Regexp {
	return regexp.MustCompile("^" + placeholderGroups.Replace(regexp.QuoteMeta(tmpl)) + "$")
}
