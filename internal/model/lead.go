package model

import "strings"

// LeadHeader is the header the model is asked to produce. It is stripped
// from responses because the model sometimes echoes it back verbatim.
const LeadHeader = "name,emailid,social link, profession"

// LeadColumns is the header row written to new CSV and XLSX artifacts.
var LeadColumns = []string{"name", "email", "social_link", "profession"}

// LeadRecord is one extracted contact entry.
type LeadRecord struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	SocialLink string `json:"social_link"`
	Profession string `json:"profession"`
}

// Row returns the record's fields in LeadColumns order.
func (r LeadRecord) Row() []string {
	return []string{r.Name, r.Email, r.SocialLink, r.Profession}
}

// IsEmpty reports whether every field is blank.
func (r LeadRecord) IsEmpty() bool {
	return r.Name == "" && r.Email == "" && r.SocialLink == "" && r.Profession == ""
}

// ParseLeadLine maps one comma-separated line onto a LeadRecord.
//
// Fields are trimmed. The first three fields become name, email and social
// link; everything from the fourth field on is re-joined with commas into
// the profession so free text containing commas survives. Missing fields
// stay empty.
func ParseLeadLine(line string) LeadRecord {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var r LeadRecord
	if len(parts) > 0 {
		r.Name = parts[0]
	}
	if len(parts) > 1 {
		r.Email = parts[1]
	}
	if len(parts) > 2 {
		r.SocialLink = parts[2]
	}
	if len(parts) > 3 {
		r.Profession = strings.Join(parts[3:], ",")
	}
	return r
}

// LeadRows converts records to string rows for the tabular writers.
func LeadRows(records []LeadRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	return rows
}
