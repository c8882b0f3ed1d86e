package extract

import (
	"strings"

	"github.com/sells-group/leadscrape/internal/model"
)

// Clean strips every backtick and every occurrence of the literal lead
// header from a model response.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "`", "")
	return strings.ReplaceAll(text, model.LeadHeader, "")
}

// ParseLeads splits cleaned response text into lead records. Blank lines,
// bare fence language tags, and lines with no field content are skipped.
func ParseLeads(text string) []model.LeadRecord {
	var out []model.LeadRecord
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" || strings.EqualFold(line, "csv") {
			continue
		}
		rec := model.ParseLeadLine(line)
		if rec.IsEmpty() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
