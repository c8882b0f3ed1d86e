package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want LeadRecord
	}{
		{
			name: "four fields",
			line: "Jane Doe,jane@x.com,linkedin.com/jane,Baker",
			want: LeadRecord{Name: "Jane Doe", Email: "jane@x.com", SocialLink: "linkedin.com/jane", Profession: "Baker"},
		},
		{
			name: "fields are trimmed",
			line: "  Jane Doe , jane@x.com ,linkedin.com/jane,  Baker ",
			want: LeadRecord{Name: "Jane Doe", Email: "jane@x.com", SocialLink: "linkedin.com/jane", Profession: "Baker"},
		},
		{
			name: "missing fields stay empty",
			line: "Jane Doe,jane@x.com",
			want: LeadRecord{Name: "Jane Doe", Email: "jane@x.com"},
		},
		{
			name: "extra fields fold into profession",
			line: "Jane Doe,jane@x.com,linkedin.com/jane,Baker, Owner",
			want: LeadRecord{Name: "Jane Doe", Email: "jane@x.com", SocialLink: "linkedin.com/jane", Profession: "Baker,Owner"},
		},
		{
			name: "single field",
			line: "Jane Doe",
			want: LeadRecord{Name: "Jane Doe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLeadLine(tt.line))
		})
	}
}

func TestLeadRecord_IsEmpty(t *testing.T) {
	assert.True(t, ParseLeadLine(" , , ,").IsEmpty())
	assert.False(t, ParseLeadLine(",,,Baker").IsEmpty())
}

func TestLeadRows(t *testing.T) {
	rows := LeadRows([]LeadRecord{
		{Name: "a", Email: "b", SocialLink: "c", Profession: "d"},
		{Name: "e"},
	})
	assert.Equal(t, [][]string{{"a", "b", "c", "d"}, {"e", "", "", ""}}, rows)
}

func TestQueryNames(t *testing.T) {
	q := Query("vegan bakeries nyc")
	assert.Equal(t, "scraped_content_vegan_bakeries_nyc.txt", q.TextFileName())
	assert.Equal(t, "lead_data_vegan bakeries nyc", q.ArtifactBase())
	assert.False(t, q.Empty())
	assert.True(t, Query("   ").Empty())
}

func TestRunStatusTerminal(t *testing.T) {
	tests := []struct {
		status RunStatus
		want   bool
	}{
		{RunStatusIdle, false},
		{RunStatusScraping, false},
		{RunStatusExtracting, false},
		{RunStatusDone, true},
		{RunStatusFailed, true},
		{RunStatusStopped, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Terminal())
		})
	}
}
