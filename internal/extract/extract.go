// Package extract turns scraped page text into lead records with a
// generative model and persists them as CSV and XLSX.
package extract

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/config"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/resilience"
	"github.com/sells-group/leadscrape/internal/tabular"
	"github.com/sells-group/leadscrape/pkg/anthropic"
)

// ErrGenerationUnavailable is returned when every generation attempt failed.
var ErrGenerationUnavailable = eris.New("extract: generation unavailable")

// Extractor calls the model and writes the resulting lead files.
type Extractor struct {
	client anthropic.Client
	aiCfg  config.AnthropicConfig
	cfg    config.ExtractConfig
	outDir string
}

// New creates an Extractor writing artifacts into outDir.
func New(client anthropic.Client, aiCfg config.AnthropicConfig, cfg config.ExtractConfig, outDir string) *Extractor {
	return &Extractor{client: client, aiCfg: aiCfg, cfg: cfg, outDir: outDir}
}

// Extract reads sourcePath, asks the model for leads using prompt, and
// appends them to lead_data_<prompt>.csv and .xlsx. Callers must check the
// error before using the returned paths. A stop only cuts retry waits short;
// an in-flight call is allowed to finish.
func (e *Extractor) Extract(ctx context.Context, sourcePath string, prompt model.Query, stop *model.StopSignal, report model.Reporter) (*model.Artifacts, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, eris.Wrap(err, "extract: read source")
	}

	text, err := e.generate(ctx, prompt.String()+" "+string(data), stop, report)
	if err != nil {
		return nil, err
	}

	records := ParseLeads(Clean(text))
	zap.L().Info("extract: parsed leads",
		zap.String("prompt", prompt.String()),
		zap.Int("records", len(records)),
	)

	rows := model.LeadRows(records)
	base := filepath.Join(e.outDir, prompt.ArtifactBase())

	csvPath, err := tabular.AppendCSV(base, rows)
	if err != nil {
		return nil, eris.Wrap(err, "extract: save csv")
	}
	xlsxPath, err := tabular.AppendXLSX(base, rows)
	if err != nil {
		return nil, eris.Wrap(err, "extract: save xlsx")
	}

	return &model.Artifacts{CSVPath: csvPath, XLSXPath: xlsxPath, Records: len(records)}, nil
}

func (e *Extractor) generate(ctx context.Context, payload string, stop *model.StopSignal, report model.Reporter) (string, error) {
	req := anthropic.MessageRequest{
		Model:       e.aiCfg.Model,
		MaxTokens:   e.aiCfg.MaxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: payload}},
		Temperature: &e.aiCfg.Temperature,
		TopP:        &e.aiCfg.TopP,
	}
	if e.cfg.Instructions != "" {
		req.System = []anthropic.SystemBlock{{Text: e.cfg.Instructions}}
	}
	if anthropic.ExclusiveSampling(req.Model) {
		zap.L().Warn("extract: model rejects top_p alongside temperature, sending temperature only",
			zap.String("model", req.Model),
		)
		req.TopP = nil
	}

	policy := resilience.FixedPolicy(e.cfg.MaxAttempts, e.cfg.RetryDelay())
	logRetry := resilience.RetryLogger("anthropic", "create_message")
	var attempts, reported int
	policy.OnRetry = func(attempt int, err error) {
		logRetry(attempt, err)
		report.Printf("Error: %v. Retrying...", err)
		reported++
	}

	waitCtx, cancel := model.WithStop(ctx, stop)
	defer cancel()

	text, err := resilience.DoVal(waitCtx, policy, func(context.Context) (string, error) {
		attempts++
		resp, err := e.client.CreateMessage(ctx, req)
		if err != nil {
			return "", err
		}
		resp.Usage.LogCost(e.aiCfg.Model, "extract")
		return resp.Text(), nil
	})
	if err != nil {
		// Every failed attempt gets an error line, including the last one.
		if attempts > reported {
			report.Printf("Error: %v. Retrying...", err)
		}
		zap.L().Error("extract: generation failed after retries",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		report.Printf("Failed to generate lead data after multiple retries.")
		return "", eris.Wrapf(ErrGenerationUnavailable, "last error: %v", err)
	}
	return text, nil
}
