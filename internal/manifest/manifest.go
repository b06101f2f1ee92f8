// Package manifest reads batch descriptions for the command line: a project
// code plus the files to rename and their metadata.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docsorter/backend/internal/session"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// Manifest is one batch.
type Manifest struct {
	Project string  `yaml:"project"`
	Files   []Entry `yaml:"files"`
}

// Entry is one file of the batch. Path is relative to the manifest. An
// empty Title keeps the default derived from the file name.
type Entry struct {
	Path         string `yaml:"path"`
	DocumentType string `yaml:"documentType"`
	Phase        string `yaml:"phase"`
	Role         string `yaml:"role"`
	Title        string `yaml:"title"`
	Date         string `yaml:"date"`
	Target       string `yaml:"target"`
}

// Load reads a manifest file.
func Load(filePath string) (*Manifest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes and checks a manifest.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	m.Project = strings.TrimSpace(m.Project)
	if m.Project == "" {
		return nil, errors.New("manifest has no project")
	}
	for i, e := range m.Files {
		if strings.TrimSpace(e.Path) == "" {
			return nil, fmt.Errorf("manifest file %d has no path", i+1)
		}
	}
	return &m, nil
}

// Populate adds every file to run, reading content from fs, and applies
// its metadata. Rejected fields are collected and returned together; the
// files themselves stay in the run.
func (m *Manifest) Populate(run *session.Run, fs billy.Filesystem) error {
	var errs []error
	for _, e := range m.Files {
		content, err := util.ReadFile(fs, e.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Path, err)
		}
		view, err := run.AddFile(e.Path, content)
		if err != nil {
			return err
		}

		res, err := run.Patch(view.ID, e.patch())
		if err != nil {
			return err
		}
		for _, p := range res.Problems {
			errs = append(errs, fmt.Errorf("%s: %s %q: %s", e.Path, p.Field, p.Value, p.Message))
		}
	}
	return errors.Join(errs...)
}

func (e Entry) patch() session.FieldPatch {
	p := session.FieldPatch{
		DocumentType: &e.DocumentType,
		Phase:        &e.Phase,
		Role:         &e.Role,
		Date:         &e.Date,
		TargetPath:   &e.Target,
	}
	if strings.TrimSpace(e.Title) != "" {
		p.Title = &e.Title
	}
	return p
}
