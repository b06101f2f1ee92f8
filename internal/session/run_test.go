package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsorter/backend/internal/archive"
	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/naming"
	"github.com/docsorter/backend/internal/remote"
	"github.com/docsorter/backend/internal/taxonomy"
	"github.com/docsorter/backend/internal/testutil"
	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

func newTestRun(t *testing.T, fake *testutil.FakeRemote) *Run {
	t.Helper()
	logger, _ := test.NewNullLogger()
	opts := Options{
		ProjectCode: "P1",
		Taxonomy: taxonomy.MustNew(
			taxonomy.Category{Name: "01_Pogodba", Subcategories: []string{"01_Ponudbe"}},
			taxonomy.Category{Name: "02_Projekt", Subcategories: []string{"02_PGD", "03_PZI"}},
		),
		Logger: logger,
	}
	if fake != nil {
		opts.Remote = fake
	}
	r, err := NewRun(opts)
	require.NoError(t, err)
	return r
}

func strp(s string) *string { return &s }

func completePatch(target string) FieldPatch {
	return FieldPatch{
		DocumentType: strp("nac"),
		Phase:        strp("PGD"),
		Role:         strp("PRO"),
		TargetPath:   strp(target),
	}
}

func TestNewRunRequiresProject(t *testing.T) {
	_, err := NewRun(Options{ProjectCode: "  "})
	assert.ErrorIs(t, err, ErrEmptyProject)
}

func TestAddFile(t *testing.T) {
	r := newTestRun(t, nil)

	v, err := r.AddFile(`C:\scans\Tloris pritličja.pdf`, pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, "Tloris pritličja.pdf", v.OriginalName)
	assert.Equal(t, "pdf", v.Extension)
	assert.Equal(t, "Tloris_pritličja", v.Title)
	assert.Equal(t, "application/pdf", v.MIMEType)
	assert.Equal(t, int64(len(pdfHeader)), v.Size)
	assert.False(t, v.Complete)
	assert.Equal(t, []string{"documentType", "phase", "role", "targetPath"}, v.Missing)
	assert.Equal(t, "P1-Tloris_pritličja.pdf", v.Filename)

	_, err = r.AddFile("Tloris pritličja.pdf", []byte("other"))
	assert.ErrorIs(t, err, ErrDuplicateFile)

	_, err = r.AddFile("", []byte("x"))
	assert.ErrorIs(t, err, ErrEmptyName)

	v, err = r.AddFile("README", []byte("plain text"))
	require.NoError(t, err)
	assert.Empty(t, v.Extension)
	assert.True(t, strings.HasPrefix(v.MIMEType, "text/plain"))

	assert.Len(t, r.Files(), 2)
}

func TestAddFileCapsTitle(t *testing.T) {
	r := newTestRun(t, nil)
	v, err := r.AddFile(strings.Repeat("a", 150)+".txt", []byte("x"))
	require.NoError(t, err)
	assert.Len(t, v.Title, naming.MaxTitleLength)
}

func TestPatch(t *testing.T) {
	r := newTestRun(t, nil)
	v, err := r.AddFile("plan.pdf", pdfHeader)
	require.NoError(t, err)

	res, err := r.Patch(v.ID, completePatch("02_Projekt/02_PGD"))
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Empty(t, res.Problems)
	assert.True(t, res.File.Complete)
	assert.Equal(t, "NAC", res.File.DocumentType)
	assert.Equal(t, "P1-NAC-PGD-PRO-plan.pdf", res.File.Filename)
	assert.Equal(t, "02_Projekt/02_PGD/P1-NAC-PGD-PRO-plan.pdf", res.File.ArchivePath)

	res, err = r.Patch(v.ID, FieldPatch{Title: strp("Tloris 1"), Date: strp("20240305")})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, "P1-NAC-PGD-PRO-Tloris_1-20240305.pdf", res.File.Filename)

	res, err = r.Patch(v.ID, FieldPatch{Date: strp("2024-03-05")})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, "2024-03-05", res.File.Date)
	assert.Equal(t, "P1-NAC-PGD-PRO-Tloris_1.pdf", res.File.Filename)

	res, err = r.Patch(v.ID, FieldPatch{Date: strp("2024-13-40")})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, "2024-13-40", res.File.Date)
	assert.Equal(t, "P1-NAC-PGD-PRO-Tloris_1.pdf", res.File.Filename)

	res, err = r.Patch(v.ID, FieldPatch{Role: strp("")})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.False(t, res.File.Complete)
	assert.Equal(t, []string{"role"}, res.File.Missing)
	assert.Empty(t, res.File.ArchivePath)
}

func TestPatchRejectsAllOrNothing(t *testing.T) {
	r := newTestRun(t, nil)
	v, err := r.AddFile("plan.pdf", pdfHeader)
	require.NoError(t, err)

	res, err := r.Patch(v.ID, FieldPatch{
		DocumentType: strp("ZZZ"),
		Phase:        strp("PGD"),
		TargetPath:   strp("99_Nope"),
	})
	require.NoError(t, err)
	assert.False(t, res.OK)
	require.Len(t, res.Problems, 2)
	assert.Equal(t, "documentType", res.Problems[0].Field)
	assert.Equal(t, "targetPath", res.Problems[1].Field)

	got, err := r.File(v.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Phase, "valid fields are not applied when another field is rejected")

	_, err = r.Patch("missing", FieldPatch{})
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestPatchAcceptsAddedCode(t *testing.T) {
	r := newTestRun(t, nil)
	v, err := r.AddFile("plan.pdf", pdfHeader)
	require.NoError(t, err)

	res, err := r.AddCode(naming.KindDocumentType, "abc", "Custom")
	require.NoError(t, err)
	require.True(t, res.OK)

	patched, err := r.Patch(v.ID, FieldPatch{DocumentType: strp("ABC")})
	require.NoError(t, err)
	assert.True(t, patched.OK)

	res, err = r.AddCode(naming.KindDocumentType, "ABC", "Again")
	require.NoError(t, err)
	assert.Equal(t, naming.RejectCollision, res.Rejection)

	_, err = r.AddCode("colour", "ABC", "x")
	assert.ErrorIs(t, err, ErrUnknownCodeKind)

	codes := r.Codes()
	assert.Equal(t, "ABC", codes.DocumentTypes[len(codes.DocumentTypes)-1].Code)
}

func TestRemoveClearProgress(t *testing.T) {
	r := newTestRun(t, nil)
	a, err := r.AddFile("a.pdf", pdfHeader)
	require.NoError(t, err)
	_, err = r.AddFile("b.pdf", pdfHeader)
	require.NoError(t, err)

	_, err = r.Patch(a.ID, completePatch("02_Projekt"))
	require.NoError(t, err)
	assert.Equal(t, Progress{Complete: 1, Total: 2}, r.Progress())

	require.NoError(t, r.Remove(a.ID))
	assert.ErrorIs(t, r.Remove(a.ID), ErrFileNotFound)
	assert.Equal(t, Progress{Complete: 0, Total: 1}, r.Progress())

	r.Clear()
	assert.Empty(t, r.Files())
}

func TestUploadPlanGroupsByFirstAppearance(t *testing.T) {
	r := newTestRun(t, nil)
	targets := []struct{ name, target string }{
		{"a.pdf", "02_Projekt/02_PGD"},
		{"b.pdf", "01_Pogodba"},
		{"c.pdf", "02_Projekt/02_PGD"},
		{"d.pdf", ""},
	}
	for _, tt := range targets {
		v, err := r.AddFile(tt.name, pdfHeader)
		require.NoError(t, err)
		if tt.target != "" {
			_, err = r.Patch(v.ID, completePatch(tt.target))
			require.NoError(t, err)
		}
	}

	plan, err := r.UploadPlan()
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "02_Projekt/02_PGD", plan[0].Path)
	require.Len(t, plan[0].Files, 2)
	assert.Equal(t, "P1-NAC-PGD-PRO-a.pdf", plan[0].Files[0].FileName)
	assert.Equal(t, "P1-NAC-PGD-PRO-c.pdf", plan[0].Files[1].FileName)
	assert.Equal(t, "01_Pogodba", plan[1].Path)
}

func TestBuildArchive(t *testing.T) {
	r := newTestRun(t, nil)
	v, err := r.AddFile("plan.pdf", pdfHeader)
	require.NoError(t, err)
	_, err = r.Patch(v.ID, completePatch("02_Projekt/03_PZI"))
	require.NoError(t, err)
	_, err = r.AddFile("loose.pdf", pdfHeader)
	require.NoError(t, err)

	data, n, err := r.BuildArchive()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "01_Pogodba/01_Ponudbe/")
	assert.Contains(t, names, "02_Projekt/03_PZI/P1-NAC-PGD-PRO-plan.pdf")
}

func TestBuildArchiveDuplicate(t *testing.T) {
	r := newTestRun(t, nil)
	a, err := r.AddFile("one.pdf", pdfHeader)
	require.NoError(t, err)
	b, err := r.AddFile("two.pdf", pdfHeader)
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID} {
		p := completePatch("02_Projekt")
		p.Title = strp("Same")
		_, err := r.Patch(id, p)
		require.NoError(t, err)
	}

	_, _, err = r.BuildArchive()
	var dup *archive.DuplicateTargetPathError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "one.pdf", dup.First)
	assert.Equal(t, "two.pdf", dup.Second)
}

func TestTitleWithSeparatorsStaysInTargetFolder(t *testing.T) {
	r := newTestRun(t, nil)
	v, err := r.AddFile("evil.pdf", pdfHeader)
	require.NoError(t, err)
	p := completePatch("01_Pogodba")
	p.Title = strp(`x/../../../../etc\evil`)
	res, err := r.Patch(v.ID, p)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, "01_Pogodba/P1-NAC-PGD-PRO-x_.._.._.._.._etc_evil.pdf", res.File.ArchivePath)

	data, n, err := r.BuildArchive()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rest, ok := strings.CutPrefix(f.Name, "01_Pogodba/")
		require.True(t, ok, f.Name)
		assert.NotContains(t, rest, "/")
	}

	plan, err := r.UploadPlan()
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.NotContains(t, plan[0].Files[0].FileName, "/")
}

func TestUploadRefusesDuplicateFilenames(t *testing.T) {
	tests := []struct {
		name    string
		targets [2]string
		wantErr bool
	}{
		{name: "same folder", targets: [2]string{"02_Projekt/02_PGD", "02_Projekt/02_PGD"}, wantErr: true},
		{name: "different folders", targets: [2]string{"02_Projekt/02_PGD", "02_Projekt/03_PZI"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeRemote("02_PGD", "03_PZI")
			r := newTestRun(t, fake)
			for i, name := range []string{"scan 1.pdf", "scan 2.pdf"} {
				v, err := r.AddFile(name, []byte(string(pdfHeader)+name))
				require.NoError(t, err)
				p := completePatch(tt.targets[i])
				p.Title = strp("scan")
				_, err = r.Patch(v.ID, p)
				require.NoError(t, err)
			}

			_, planErr := r.UploadPlan()
			result, err := r.Upload(context.Background(), nil)
			if !tt.wantErr {
				require.NoError(t, planErr)
				require.NoError(t, err)
				assert.Equal(t, 2, result.SuccessCount)
				return
			}

			assert.ErrorIs(t, planErr, archive.ErrDuplicateTargetPath)
			require.ErrorIs(t, err, archive.ErrDuplicateTargetPath)
			var dup *archive.DuplicateTargetPathError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, "02_Projekt/02_PGD/P1-NAC-PGD-PRO-scan.pdf", dup.Path)
			assert.Equal(t, "scan 1.pdf", dup.First)
			assert.Equal(t, "scan 2.pdf", dup.Second)
			assert.Zero(t, fake.Calls(remote.OpListProjects))
			assert.Empty(t, fake.Uploaded())
		})
	}
}

func TestUploadWithoutRemote(t *testing.T) {
	r := newTestRun(t, nil)
	_, err := r.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRemote)
	_, err = r.Bind(context.Background())
	assert.ErrorIs(t, err, ErrNoRemote)
}

func TestUploadAndReset(t *testing.T) {
	fake := testutil.NewFakeRemote("02_PGD")
	r := newTestRun(t, fake)

	ok, err := r.AddFile("ok.pdf", pdfHeader)
	require.NoError(t, err)
	_, err = r.Patch(ok.ID, completePatch("02_Projekt/02_PGD"))
	require.NoError(t, err)
	missing, err := r.AddFile("missing.pdf", pdfHeader)
	require.NoError(t, err)
	_, err = r.Patch(missing.ID, completePatch("02_Projekt/03_PZI"))
	require.NoError(t, err)

	var seen []models.PerFileOutcome
	result, err := r.Upload(context.Background(), func(o models.PerFileOutcome) { seen = append(seen, o) })
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Len(t, seen, 2)
	assert.Equal(t, "P1-NAC-PGD-PRO-ok.pdf", fake.Uploaded()[0].FileName)

	info := r.Info()
	assert.True(t, info.Bound)
	assert.Equal(t, "proj-1", info.ProjectID)
	assert.Equal(t, 2, info.FileCount)

	_, err = r.AddCode(naming.KindRole, "XYZ", "Extra")
	require.NoError(t, err)

	r.Reset()
	info = r.Info()
	assert.False(t, info.Bound)
	assert.Zero(t, info.FileCount)
	for _, e := range r.Codes().Roles {
		assert.NotEqual(t, "XYZ", e.Code)
	}

	_, err = r.Bind(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls(remote.OpListProjects))
}
