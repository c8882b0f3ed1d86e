package model

import "strings"

const (
	scrapedPrefix  = "scraped_content_"
	artifactPrefix = "lead_data_"
)

// Query is the free-text search term a run is started with. It also names
// every file the run produces.
type Query string

// String returns the raw query text.
func (q Query) String() string { return string(q) }

// Empty reports whether the query has no usable text.
func (q Query) Empty() bool { return strings.TrimSpace(string(q)) == "" }

// TextFileName is the name of the intermediate scraped-text file.
func (q Query) TextFileName() string {
	return scrapedPrefix + strings.ReplaceAll(string(q), " ", "_") + ".txt"
}

// ArtifactBase is the extension-less name shared by the CSV and XLSX outputs.
// Spaces are kept as-is, so "vegan bakeries nyc" maps to
// "lead_data_vegan bakeries nyc".
func (q Query) ArtifactBase() string {
	return artifactPrefix + string(q)
}

// Artifacts are the files produced by a successful extraction.
type Artifacts struct {
	CSVPath  string `json:"csv_path"`
	XLSXPath string `json:"xlsx_path"`
	Records  int    `json:"records"`
}
