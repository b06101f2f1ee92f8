package naming

import (
	"strings"
	"testing"

	"github.com/docsorter/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func completeRecord() *models.FileRecord {
	return &models.FileRecord{
		OriginalName: "site plan.pdf",
		Extension:    "pdf",
		DocumentType: "NAC",
		Phase:        "PZI",
		Role:         "PRO",
		Title:        "site_plan",
		TargetPath:   "02_Projektna_dok/03_PZI",
	}
}

func TestIsComplete(t *testing.T) {
	assert.True(t, IsComplete(completeRecord()))
	assert.False(t, IsComplete(nil))

	clears := map[string]func(r *models.FileRecord){
		"documentType": func(r *models.FileRecord) { r.DocumentType = "" },
		"phase":        func(r *models.FileRecord) { r.Phase = "" },
		"role":         func(r *models.FileRecord) { r.Role = "" },
		"title":        func(r *models.FileRecord) { r.Title = "" },
		"targetPath":   func(r *models.FileRecord) { r.TargetPath = "" },
	}
	for field, clear := range clears {
		t.Run(field+" empty", func(t *testing.T) {
			r := completeRecord()
			clear(r)
			assert.False(t, IsComplete(r))
			assert.Equal(t, []string{field}, MissingFields(r))
		})
	}

	t.Run("optional fields do not matter", func(t *testing.T) {
		r := completeRecord()
		r.Date = ""
		r.Extension = ""
		assert.True(t, IsComplete(r))
	})

	t.Run("recomputed after mutation", func(t *testing.T) {
		r := completeRecord()
		assert.True(t, IsComplete(r))
		r.Role = ""
		assert.False(t, IsComplete(r))
		r.Role = "NAD"
		assert.True(t, IsComplete(r))
	})
}

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.FileRecord)
		project string
		want    string
	}{
		{
			name:    "all segments",
			project: "P123",
			want:    "P123-NAC-PZI-PRO-site_plan.pdf",
		},
		{
			name:    "with valid date",
			mutate:  func(r *models.FileRecord) { r.Date = "20240315" },
			project: "P123",
			want:    "P123-NAC-PZI-PRO-site_plan-20240315.pdf",
		},
		{
			name:    "dashed date is omitted",
			mutate:  func(r *models.FileRecord) { r.Date = "2024-03-15" },
			project: "P123",
			want:    "P123-NAC-PZI-PRO-site_plan.pdf",
		},
		{
			name:    "padded date is omitted",
			mutate:  func(r *models.FileRecord) { r.Date = " 20240315 " },
			project: "P123",
			want:    "P123-NAC-PZI-PRO-site_plan.pdf",
		},
		{
			name:    "malformed date is omitted",
			mutate:  func(r *models.FileRecord) { r.Date = "2024-13-40" },
			project: "P123",
			want:    "P123-NAC-PZI-PRO-site_plan.pdf",
		},
		{
			name:    "empty segments skipped",
			mutate:  func(r *models.FileRecord) { r.Phase = ""; r.Role = "" },
			project: "P123",
			want:    "P123-NAC-site_plan.pdf",
		},
		{
			name:    "no extension",
			mutate:  func(r *models.FileRecord) { r.Extension = "" },
			project: "P123",
			want:    "P123-NAC-PZI-PRO-site_plan",
		},
		{
			name:    "no project code",
			project: "",
			want:    "NAC-PZI-PRO-site_plan.pdf",
		},
		{
			name: "every part empty",
			mutate: func(r *models.FileRecord) {
				*r = models.FileRecord{Extension: "pdf", Date: "garbage"}
			},
			project: "",
			want:    "",
		},
		{
			name: "date alone is enough",
			mutate: func(r *models.FileRecord) {
				*r = models.FileRecord{Extension: "pdf", Date: "20240101"}
			},
			want: "20240101.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := completeRecord()
			if tt.mutate != nil {
				tt.mutate(r)
			}
			assert.Equal(t, tt.want, DeriveFilename(r, tt.project))
		})
	}
}

func TestDeriveFilenameDeterministic(t *testing.T) {
	r := completeRecord()
	r.Date = "20231231"
	first := DeriveFilename(r, "P1")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, DeriveFilename(r, "P1"))
	}
}

func TestDeriveArchivePath(t *testing.T) {
	r := completeRecord()
	p := DeriveArchivePath(r, "P1")
	assert.True(t, strings.HasPrefix(p, r.TargetPath+"/"), p)
	assert.True(t, strings.HasSuffix(p, "."+r.Extension), p)
	assert.Equal(t, "02_Projektna_dok/03_PZI/P1-NAC-PZI-PRO-site_plan.pdf", p)

	r.TargetPath = ""
	assert.Empty(t, DeriveArchivePath(r, "P1"))
	assert.Empty(t, DeriveArchivePath(nil, "P1"))
	assert.Empty(t, DeriveArchivePath(&models.FileRecord{TargetPath: "00_Navodila"}, ""))
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("20240229")
	assert.True(t, ok)
	assert.Equal(t, "20240229", d.Format(DateLayout))

	for _, in := range []string{"", "2024-02-29", " 20240229 ", "20240229\n", "20230229", "2024-13-40", "15.03.2024", "2024031"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"site plan v2", "site_plan_v2"},
		{"x/../../../../etc/evil", "x_.._.._.._.._etc_evil"},
		{`a\b`, "a_b"},
		{"/leading", "_leading"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeTitle(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "/")
			assert.NotContains(t, got, `\`)
		})
	}
	assert.Len(t, []rune(NormalizeTitle(strings.Repeat("ž", 150))), MaxTitleLength)
}

func TestDeriveFilenameStaysOneSegment(t *testing.T) {
	r := &models.FileRecord{
		OriginalName: "evil.pdf", Extension: "pdf",
		DocumentType: "NAC", Phase: "PZI", Role: "PRO",
		Title:      NormalizeTitle("x/../../../../etc/evil"),
		TargetPath: "00_Navodila",
	}
	assert.Equal(t, "P1-NAC-PZI-PRO-x_.._.._.._.._etc_evil.pdf", DeriveFilename(r, "P1"))
	assert.Equal(t, "00_Navodila/P1-NAC-PZI-PRO-x_.._.._.._.._etc_evil.pdf", DeriveArchivePath(r, "P1"))
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, stem, ext string }{
		{"report.pdf", "report", "pdf"},
		{"archive.tar.gz", "archive.tar", "gz"},
		{"README", "README", ""},
		{".env", ".env", ""},
		{"trailing.", "trailing", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		stem, ext := SplitName(tt.in)
		assert.Equal(t, tt.stem, stem, tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
	}
}
