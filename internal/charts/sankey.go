package charts

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"salarycli/internal/analysis"
)

// SankeyName is the base name of the career level to role diagram
const SankeyName = "sankey_career_level_role"

const sankeyTitle = "Career Level → Role"

var sankeyTemplate = template.Must(template.New("sankey").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
</head>
<body style="margin:0">
<div id="sankey" style="width:100%;height:100vh"></div>
<script>
const data = {{.Data}};
Plotly.newPlot("sankey", [{
  type: "sankey",
  orientation: "h",
  node: {label: data.labels, pad: 15, thickness: 20},
  link: {source: data.source, target: data.target, value: data.value}
}], {title: {text: {{.Title}}}, font: {size: 12}});
</script>
</body>
</html>
`))

// SankeyData is the node and link arrays plotly expects
type SankeyData struct {
	Labels []string `json:"labels"`
	Source []int    `json:"source"`
	Target []int    `json:"target"`
	Value  []int    `json:"value"`
}

// BuildSankey indexes flows into nodes. Levels and roles get separate nodes
// even when they share a label.
func BuildSankey(flows []analysis.Flow) SankeyData {
	var out SankeyData
	index := make(map[string]int)
	node := func(kind, label string) int {
		key := kind + "\x00" + label
		if i, ok := index[key]; ok {
			return i
		}
		index[key] = len(out.Labels)
		out.Labels = append(out.Labels, label)
		return index[key]
	}
	for _, f := range flows {
		if f.Value <= 0 {
			continue
		}
		out.Source = append(out.Source, node("level", f.Source))
		out.Target = append(out.Target, node("role", f.Target))
		out.Value = append(out.Value, f.Value)
	}
	return out
}

// WriteSankeyHTML renders a standalone plotly page
func WriteSankeyHTML(path string, data SankeyData) error {
	var buf bytes.Buffer
	if err := sankeyTemplate.Execute(&buf, struct {
		Title string
		Data  SankeyData
	}{sankeyTitle, data}); err != nil {
		return fmt.Errorf("render sankey: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Sankey writes the HTML diagram and, when enabled, a PNG screenshot of it.
// A failed screenshot is logged and leaves only the HTML page.
func (r *Renderer) Sankey(ctx context.Context, in Input) ([]string, error) {
	var flows []analysis.Flow
	switch {
	case in.Analysis != nil:
		flows = in.Analysis.Sankey
	case in.Data != nil:
		flows = analysis.SankeyFlows(in.Data)
	}
	data := BuildSankey(flows)
	if len(data.Value) == 0 {
		return nil, noData("career level and role flows")
	}

	htmlPath := r.paths.FigurePath(SankeyName + ".html")
	if err := WriteSankeyHTML(htmlPath, data); err != nil {
		return nil, err
	}
	written := []string{htmlPath}
	if !r.opts.SankeyPNG {
		return written, nil
	}

	pngPath := r.paths.FigurePath(SankeyName + ".png")
	width, height := int(r.opts.Width.Points()*dpiScale), int(r.opts.Height.Points()*dpiScale)
	if err := ScreenshotHTML(ctx, htmlPath, pngPath, width, height, r.opts.ChromeTimeout); err != nil {
		r.logger.WarnContext(ctx, "sankey PNG skipped",
			slog.String("path", pngPath),
			slog.String("error", err.Error()))
		return written, nil
	}
	return append(written, pngPath), nil
}

// dpiScale maps points (1/72 in) to screen pixels at 96 dpi
const dpiScale = 96.0 / 72.0

// ScreenshotHTML opens a local page in headless Chrome and saves a PNG of it
func ScreenshotHTML(ctx context.Context, htmlPath, pngPath string, width, height int, timeout time.Duration) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.WindowSize(width, height),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		browserCtx, cancelTimeout = context.WithTimeout(browserCtx, timeout)
		defer cancelTimeout()
	}

	var png []byte
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitVisible(".main-svg", chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	); err != nil {
		return fmt.Errorf("screenshot %s: %w", htmlPath, err)
	}
	return os.WriteFile(pngPath, png, 0644)
}
