package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"adlens/domain/causal"
)

// RenderMarkdown renders one analysis result as a markdown report suitable
// for dashboards and exports.
func RenderMarkdown(res *causal.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Change Analysis\n\n", res.Metric)
	fmt.Fprintf(&b, "**Period:** %s vs %s\n\n", res.PeriodBefore, res.PeriodAfter)
	fmt.Fprintf(&b, "**%s:** %.2f → %.2f (%+.2f, %+.1f%%)\n\n",
		res.Metric, res.BeforeValue, res.AfterValue, res.TotalChange, res.TotalChangePct)
	fmt.Fprintf(&b, "**Confidence:** %.2f | **Method:** %s\n\n", res.Confidence, res.Method)

	if len(res.Contributions) > 0 {
		b.WriteString("## Component Breakdown\n\n")
		b.WriteString("| Component | Effect | Share | Before | After | Direction |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, c := range res.Contributions {
			fmt.Fprintf(&b, "| %s | %+.4f | %.1f%% | %.2f | %.2f | %s |\n",
				c.Component, c.AbsoluteChange, c.PercentageContribution,
				c.BeforeValue, c.AfterValue, c.ImpactDirection)
		}
		b.WriteString("\n")
	}

	writeAttribution(&b, "Platform Attribution", res.PlatformAttribution)
	writeAttribution(&b, "Channel Attribution", res.ChannelAttribution)

	if len(res.Insights) > 0 {
		b.WriteString("## Insights\n\n")
		for _, s := range res.Insights {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, s := range res.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeAttribution(b *strings.Builder, title string, attribution map[string]float64) {
	if len(attribution) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, key := range sortedKeys(attribution) {
		fmt.Fprintf(b, "- %s: %+.2f\n", key, attribution[key])
	}
	b.WriteString("\n")
}

// ToHTML converts a markdown report to HTML for the API's report endpoint.
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
