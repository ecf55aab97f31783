// Package render turns a hotel search report into a printable PDF via
// headless Chromium.
package render

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const reportCSS = `body{font-family:Georgia,serif;color:#1c1917;line-height:1.5;font-size:0.95rem;}
h1{font-size:1.5rem;border-bottom:2px solid #0f766e;padding-bottom:0.3rem;}
h2{font-size:1.15rem;color:#0f766e;margin-top:1.4rem;}
h3{font-size:0.95rem;text-transform:uppercase;letter-spacing:0.04em;color:#44403c;}
blockquote{border-left:3px solid #d6d3d1;margin:0.4rem 0;padding:0.1rem 0.8rem;color:#57534e;font-style:italic;}
a{color:#1d4ed8;text-decoration:underline;}
ul{padding-left:1.2rem;}
.report-meta{color:#44403c;font-size:0.85rem;margin-bottom:0.6rem;}
.report-meta strong{color:#1c1917;}
.report-badge{display:inline-block;background:#ccfbf1;color:#134e4a;border:1px solid #5eead4;border-radius:4px;padding:0.1rem 0.5rem;font-size:0.75rem;margin-right:0.4rem;}
.report-badge.degraded{background:#fef3c7;color:#78350f;border-color:#fcd34d;}`

type ChromiumPDFRenderer struct {
	chromePath string
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{chromePath: detectChromePath()}
}

// Render accepts either a raw markdown report or a JSON response
// envelope holding one under "report_markdown", and returns PDF bytes.
func (r *ChromiumPDFRenderer) Render(ctx context.Context, report string) ([]byte, error) {
	htmlDoc, err := BuildHTML(report)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

// BuildHTML converts the report to a standalone HTML document.
func BuildHTML(report string) (string, error) {
	metaHTML := ""
	badgeHTML := ""
	markdown := report

	var envelope map[string]any
	if json.Unmarshal([]byte(report), &envelope) == nil {
		if s, ok := envelope["report_markdown"].(string); ok && strings.TrimSpace(s) != "" {
			markdown = s
		}
		metaHTML = buildMetaHTML(envelope)
		badgeHTML = buildBadgeHTML(envelope)
	}

	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Hotel Search Report</title>" +
		"<style>" + reportCSS + "\n" +
		"html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
		"@media print{ @page{size:auto;margin:12mm;} }" +
		"</style></head><body>" +
		"<div class='report-meta'>" + metaHTML + "</div>" +
		"<div class='report-badges'>" + badgeHTML + "</div>" +
		"<div class='report-html'>" + content.String() + "</div>" +
		"</body></html>", nil
}

func buildMetaHTML(env map[string]any) string {
	var out strings.Builder
	if loc := stringValue(env["location"]); loc != "" {
		out.WriteString("<div><strong>Location:</strong> " + html.EscapeString(loc) + "</div>")
	}
	checkin := stringValue(env["checkin"])
	checkout := stringValue(env["checkout"])
	if checkin != "" && checkout != "" {
		out.WriteString("<div><strong>Stay:</strong> " + html.EscapeString(checkin+" to "+checkout) + "</div>")
	}
	if completed := lookupString(env, "metadata", "completed_at"); completed != "" {
		if ts, err := time.Parse(time.RFC3339Nano, completed); err == nil {
			out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(ts.In(time.Local).Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
		} else {
			out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(completed) + "</div>")
		}
	}
	return out.String()
}

func buildBadgeHTML(env map[string]any) string {
	var out strings.Builder
	if hotels, ok := env["hotels"].([]any); ok && len(hotels) > 0 {
		out.WriteString(fmt.Sprintf("<span class='report-badge'>%d hotels ranked</span>", len(hotels)))
	}
	if model := lookupString(env, "metadata", "model"); model != "" {
		out.WriteString("<span class='report-badge'>" + html.EscapeString(model) + "</span>")
	}
	if degraded, ok := lookupValue(env, "metadata", "degraded").(bool); ok && degraded {
		label := "Degraded"
		if reason := lookupString(env, "metadata", "degraded_reason"); reason != "" {
			label = "Degraded: " + reason
		}
		out.WriteString("<span class='report-badge degraded'>" + html.EscapeString(label) + "</span>")
	}
	return out.String()
}

func lookupValue(root map[string]any, path ...string) any {
	var cur any = root
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func lookupString(root map[string]any, path ...string) string {
	return stringValue(lookupValue(root, path...))
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
