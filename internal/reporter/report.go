package reporter

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// Report represents one fuzzing run.
type Report struct {
	Timestamp   time.Time
	Seed        int64
	TotalCases  int
	PassedCases int
	FailedCases int
	Results     []CaseResult
}

// CaseResult represents a single generated case outcome.
type CaseResult struct {
	Endpoint string
	Method   string
	CaseID   string
	Status   string
	Duration time.Duration
	Error    string
	Request  string
	Response interface{}
}

// Reporter handles the generation of fuzzing reports.
type Reporter struct {
	config ReportingConfig
}

// ReportingConfig holds the configuration for reporting.
type ReportingConfig struct {
	Format    []string
	OutputDir string
	Detailed  bool
}

// NewReporter creates a new instance of Reporter.
func NewReporter(config ReportingConfig) *Reporter {
	return &Reporter{
		config: config,
	}
}

// GenerateReport writes the run report in every configured format. The seed
// is recorded so a run can be repeated with the same generated cases.
func (r *Reporter) GenerateReport(results []CaseResult, seed int64) error {
	report := Report{
		Timestamp:  time.Now(),
		Seed:       seed,
		TotalCases: len(results),
		Results:    results,
	}

	for _, result := range results {
		if result.Error == "" {
			report.PassedCases++
		} else {
			report.FailedCases++
		}
	}

	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	for _, format := range r.config.Format {
		switch format {
		case "json":
			if err := r.generateJSONReport(report); err != nil {
				return fmt.Errorf("failed to generate JSON report: %v", err)
			}
		case "html":
			if err := r.generateHTMLReport(report); err != nil {
				return fmt.Errorf("failed to generate HTML report: %v", err)
			}
		default:
			return fmt.Errorf("unknown report format: %s", format)
		}
	}
	return nil
}

func (r *Reporter) generateJSONReport(report Report) error {
	if !r.config.Detailed {
		for i := range report.Results {
			report.Results[i].Response = nil
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %v", err)
	}
	path := filepath.Join(r.config.OutputDir, "fuzz_report.json")
	return os.WriteFile(path, data, 0644)
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><title>Fuzzing Report</title></head>
<body>
<h1>Fuzzing Report</h1>
<p>Generated: {{.Timestamp.Format "2006-01-02 15:04:05"}} | Seed: {{.Seed}}</p>
<p>Total: {{.TotalCases}} | Passed: {{.PassedCases}} | Failed: {{.FailedCases}}</p>
<table border="1" cellpadding="4">
<tr><th>Endpoint</th><th>Method</th><th>Status</th><th>Duration</th><th>Error</th></tr>
{{range .Results}}<tr><td>{{.Endpoint}}</td><td>{{.Method}}</td><td>{{.Status}}</td><td>{{.Duration}}</td><td>{{.Error}}</td></tr>
{{end}}</table>
</body>
</html>
`))

func (r *Reporter) generateHTMLReport(report Report) error {
	path := filepath.Join(r.config.OutputDir, "fuzz_report.html")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %v", err)
	}
	defer file.Close()
	return htmlReport.Execute(file, report)
}
