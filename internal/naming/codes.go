package naming

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CodeLength is the exact length of every metadata code.
const CodeLength = 3

// CodeKind names one of the three code tables.
type CodeKind string

const (
	KindDocumentType CodeKind = "documentType"
	KindPhase        CodeKind = "phase"
	KindRole         CodeKind = "role"
)

// ParseCodeKind maps an external name to a CodeKind.
func ParseCodeKind(s string) (CodeKind, bool) {
	switch CodeKind(s) {
	case KindDocumentType, KindPhase, KindRole:
		return CodeKind(s), true
	}
	return "", false
}

// CodeEntry is one code and its human description.
type CodeEntry struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// Rejection explains why a code was not added.
type Rejection string

const (
	RejectEmpty     Rejection = "EMPTY"
	RejectLength    Rejection = "LENGTH"
	RejectCollision Rejection = "COLLISION"
)

// AddResult is the outcome of CodeTable.Add. Bad input is an expected state,
// so it is reported here instead of as an error.
type AddResult struct {
	OK        bool       `json:"ok"`
	Code      string     `json:"code"`
	Entry     *CodeEntry `json:"entry,omitempty"`
	Rejection Rejection  `json:"rejection,omitempty"`
	Message   string     `json:"message"`
}

// CodeTable is an ordered mapping of 3-letter codes to descriptions.
// It is not safe for concurrent use.
type CodeTable struct {
	order []string
	desc  map[string]string
}

// NewCodeTable creates a table seeded with entries. Seed entries bypass the
// Add checks apart from de-duplication.
func NewCodeTable(entries ...CodeEntry) *CodeTable {
	t := &CodeTable{desc: make(map[string]string, len(entries))}
	for _, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		if _, ok := t.desc[code]; ok {
			continue
		}
		t.order = append(t.order, code)
		t.desc[code] = e.Description
	}
	return t
}

// Add validates and appends a code. The code is trimmed and upper-cased.
func (t *CodeTable) Add(code, description string) AddResult {
	code = strings.ToUpper(strings.TrimSpace(code))
	description = strings.TrimSpace(description)

	switch {
	case code == "" || description == "":
		return AddResult{Code: code, Rejection: RejectEmpty, Message: "code and description are required"}
	case len([]rune(code)) != CodeLength:
		return AddResult{Code: code, Rejection: RejectLength, Message: fmt.Sprintf("code must have exactly %d letters", CodeLength)}
	}
	if _, exists := t.desc[code]; exists {
		return AddResult{Code: code, Rejection: RejectCollision, Message: fmt.Sprintf("code %s already exists", code)}
	}

	t.order = append(t.order, code)
	t.desc[code] = description
	entry := CodeEntry{Code: code, Description: description}
	return AddResult{OK: true, Code: code, Entry: &entry, Message: fmt.Sprintf("added %s (%s)", code, description)}
}

// Contains reports whether code is in the table.
func (t *CodeTable) Contains(code string) bool {
	_, ok := t.desc[code]
	return ok
}

// Describe returns the description of code.
func (t *CodeTable) Describe(code string) (string, bool) {
	d, ok := t.desc[code]
	return d, ok
}

// Entries returns the table in insertion order.
func (t *CodeTable) Entries() []CodeEntry {
	out := make([]CodeEntry, 0, len(t.order))
	for _, c := range t.order {
		out = append(out, CodeEntry{Code: c, Description: t.desc[c]})
	}
	return out
}

// Len returns the number of codes.
func (t *CodeTable) Len() int { return len(t.order) }

// Clone returns an independent copy.
func (t *CodeTable) Clone() *CodeTable {
	return NewCodeTable(t.Entries()...)
}

// CodeTables holds the three tables used by one run.
type CodeTables struct {
	DocumentTypes *CodeTable
	Phases        *CodeTable
	Roles         *CodeTable
}

// Table returns the table for kind, or nil for an unknown kind.
func (c *CodeTables) Table(kind CodeKind) *CodeTable {
	switch kind {
	case KindDocumentType:
		return c.DocumentTypes
	case KindPhase:
		return c.Phases
	case KindRole:
		return c.Roles
	}
	return nil
}

// Clone deep-copies all three tables.
func (c *CodeTables) Clone() *CodeTables {
	return &CodeTables{
		DocumentTypes: c.DocumentTypes.Clone(),
		Phases:        c.Phases.Clone(),
		Roles:         c.Roles.Clone(),
	}
}

// DefaultCodeTables returns fresh tables seeded with the built-in codes.
func DefaultCodeTables() *CodeTables {
	return &CodeTables{
		DocumentTypes: NewCodeTable(defaultDocumentTypes...),
		Phases:        NewCodeTable(defaultPhases...),
		Roles:         NewCodeTable(defaultRoles...),
	}
}

var defaultDocumentTypes = []CodeEntry{
	{"NAC", "Načrt"}, {"DOK", "Dokument"}, {"FOT", "Fotografija"}, {"SIT", "Situacija"},
	{"PRO", "Projekt"}, {"DOP", "Dopis"}, {"POR", "Poročilo"}, {"PON", "Ponudba"},
	{"POG", "Pogodba"}, {"NAR", "Naročilo"}, {"RAC", "Račun"}, {"KOI", "Kontrola"},
	{"TER", "Terminski plan"}, {"SPE", "Specifikacija"}, {"EVD", "Evidenca"},
}

var defaultPhases = []CodeEntry{
	{"PON", "Ponudba"}, {"PRO", "Projektiranje"}, {"PGD", "PGD"},
	{"PZI", "PZI"}, {"PID", "PID"}, {"IZV", "Izvedba"},
	{"ZAK", "Zaključek"}, {"GAR", "Garancija"}, {"SPL", "Splošno"},
}

var defaultRoles = []CodeEntry{
	{"NAR", "Naročnik"}, {"IZV", "Izvajalec"}, {"NAD", "Nadzornik"},
	{"PRO", "Projektant"}, {"PDI", "Podizvajalec"}, {"DOB", "Dobavitelj"},
	{"SKO", "Ostalo"},
}

// codesFile is the YAML layout of a code seed file.
type codesFile struct {
	DocumentTypes []CodeEntry `yaml:"documentTypes"`
	Phases        []CodeEntry `yaml:"phases"`
	Roles         []CodeEntry `yaml:"roles"`
}

// LoadCodeTables reads extra seed codes from a YAML file on top of the
// built-in tables.
func LoadCodeTables(filePath string) (*CodeTables, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseCodeTables(file)
}

// ParseCodeTables parses a YAML seed file. Every entry goes through Add, so
// an invalid or colliding code fails the whole load.
func ParseCodeTables(r io.Reader) (*CodeTables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var f codesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing code tables: %w", err)
	}

	tables := DefaultCodeTables()
	seed := []struct {
		kind    CodeKind
		entries []CodeEntry
	}{
		{KindDocumentType, f.DocumentTypes},
		{KindPhase, f.Phases},
		{KindRole, f.Roles},
	}
	for _, s := range seed {
		for _, e := range s.entries {
			if res := tables.Table(s.kind).Add(e.Code, e.Description); !res.OK {
				return nil, fmt.Errorf("%s code %q: %s", s.kind, e.Code, res.Message)
			}
		}
	}
	return tables, nil
}
