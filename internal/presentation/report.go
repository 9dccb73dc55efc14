package presentation

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/ensemble"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

// ReportFile is the generated report's file name
const ReportFile = "index.html"

// Report is the full data set behind one generated page.
type Report struct {
	Title        string
	GeneratedAt  time.Time
	ModelVersion string
	Metrics      *scoring.Metrics
	Waterfalls   []RoundWaterfall
	Importance   []ensemble.FeatureImportance

	maxAbsPrediction float64
	maxImportance    float64
}

// NewReport assembles report data from a scoring result and its attribution
// summary.
func NewReport(result *scoring.Result, importance []ensemble.FeatureImportance, modelVersion string) *Report {
	r := &Report{
		Title:        "Race Outcome Predictions",
		GeneratedAt:  time.Now().UTC(),
		ModelVersion: modelVersion,
		Metrics:      result.Metrics,
		Waterfalls:   BuildWaterfalls(result.Predictions),
		Importance:   importance,
	}

	for _, w := range r.Waterfalls {
		for _, e := range w.Entries {
			if abs := math.Abs(e.Prediction); abs > r.maxAbsPrediction {
				r.maxAbsPrediction = abs
			}
		}
	}
	for _, imp := range importance {
		if imp.MeanAbsoluteImpact > r.maxImportance {
			r.maxImportance = imp.MeanAbsoluteImpact
		}
	}
	return r
}

// BarWidth scales a predicted deviation to an SVG bar width in pixels
func (r *Report) BarWidth(prediction float64) float64 {
	if r.maxAbsPrediction == 0 {
		return 0
	}
	return math.Abs(prediction) / r.maxAbsPrediction * 300
}

// ImportanceWidth scales a feature impact to an SVG bar width in pixels
func (r *Report) ImportanceWidth(impact float64) float64 {
	if r.maxImportance == 0 {
		return 0
	}
	return impact / r.maxImportance * 300
}

// BarColor separates faster-than-average and slower-than-average bars
func (r *Report) BarColor(prediction float64) string {
	if prediction < 0 {
		return "#2e7d32"
	}
	return "#c62828"
}

// Generator writes the static report site.
type Generator struct {
	outputDir string
	assetsDir string
	logger    *logrus.Logger
	tmpl      *template.Template
}

// NewGenerator creates a report generator
func NewGenerator(outputDir, assetsDir string, logger *logrus.Logger) (*Generator, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Generator{
		outputDir: outputDir,
		assetsDir: assetsDir,
		logger:    logger,
		tmpl:      tmpl,
	}, nil
}

// Generate renders the report to outputDir/index.html
func (g *Generator) Generate(report *Report) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(g.outputDir, ReportFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := g.tmpl.Execute(f, report); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"path":   path,
		"rounds": len(report.Waterfalls),
	}).Info("Report generated")
	return path, nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2rem; color: #212121; }
h1, h2 { color: #1a237e; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #bdbdbd; padding: 0.35rem 0.7rem; text-align: left; }
th { background: #e8eaf6; }
.meta { color: #616161; font-size: 0.9rem; }
.bar-label { font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Model {{.ModelVersion}} &middot; generated {{.GeneratedAt.Format "2006-01-02 15:04 UTC"}}</p>

{{if .Metrics}}
<h2>Holdout Metrics</h2>
<table>
<tr><th>RMSE (s)</th><th>MAE (s)</th><th>R&sup2;</th><th>Rows</th></tr>
<tr><td>{{printf "%.3f" .Metrics.RMSE}}</td><td>{{printf "%.3f" .Metrics.MAE}}</td><td>{{printf "%.3f" .Metrics.R2}}</td><td>{{.Metrics.N}}</td></tr>
</table>
{{end}}

{{if .Importance}}
<h2>Feature Impact</h2>
<table>
<tr><th>Feature</th><th>Mean |impact| (s)</th><th></th></tr>
{{$r := .}}
{{range .Importance}}
<tr>
<td>{{.Feature}}</td>
<td>{{printf "%.4f" .MeanAbsoluteImpact}}</td>
<td><svg width="310" height="14"><rect width="{{$r.ImportanceWidth .MeanAbsoluteImpact}}" height="14" fill="#3949ab"/></svg></td>
</tr>
{{end}}
</table>
{{end}}

{{$r := .}}
{{range .Waterfalls}}
<h2 id="{{.Key}}">Season {{.Season}}, Round {{.Round}}</h2>
<table>
<tr><th>Driver</th><th>Grid</th><th>Predicted deviation (s)</th><th></th><th>Actual (s)</th><th>Residual (s)</th></tr>
{{range .Entries}}
<tr>
<td class="bar-label">{{.Label}}</td>
<td>{{.GridPosition}}</td>
<td>{{printf "%+.2f" .Prediction}}</td>
<td><svg width="310" height="14"><rect width="{{$r.BarWidth .Prediction}}" height="14" fill="{{$r.BarColor .Prediction}}"/></svg></td>
<td>{{if .Truth}}{{printf "%+.2f" .TruthValue}}{{end}}</td>
<td>{{if .Residual}}{{printf "%+.2f" .ResidualValue}}{{end}}</td>
</tr>
{{end}}
</table>
{{end}}

</body>
</html>
`
