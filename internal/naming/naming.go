// Package naming derives canonical filenames and archive paths from file
// metadata. Everything here is pure: no I/O, no clock.
package naming

import (
	"path"
	"strings"
	"time"

	"github.com/docsorter/backend/internal/models"
)

const (
	// Separator joins the segments of a derived filename.
	Separator = "-"

	// MaxTitleLength caps a normalized title, in characters.
	MaxTitleLength = 100

	// DateLayout is the normalized form of the optional date segment.
	DateLayout = "20060102"
)

// titleReplacer maps spaces and path separators to underscores so a title
// always stays a single path segment.
var titleReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// RequiredFields lists the fields a record needs before it can be named.
var RequiredFields = []string{"documentType", "phase", "role", "title", "targetPath"}

// IsComplete reports whether every required field of r is set.
func IsComplete(r *models.FileRecord) bool {
	return len(MissingFields(r)) == 0
}

// MissingFields returns the required fields of r that are still empty, in
// RequiredFields order.
func MissingFields(r *models.FileRecord) []string {
	if r == nil {
		return RequiredFields
	}
	values := []string{r.DocumentType, r.Phase, r.Role, r.Title, r.TargetPath}
	var missing []string
	for i, v := range values {
		if v == "" {
			missing = append(missing, RequiredFields[i])
		}
	}
	return missing
}

// NormalizeTitle replaces spaces and path separators with underscores and
// caps the result at MaxTitleLength characters.
func NormalizeTitle(s string) string {
	s = titleReplacer.Replace(s)
	runes := []rune(s)
	if len(runes) > MaxTitleLength {
		runes = runes[:MaxTitleLength]
	}
	return string(runes)
}

// ParseDate parses an optional date field. Only DateLayout is accepted and
// the value is not trimmed. The second return is false when the field is
// empty or malformed.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DeriveFilename builds the canonical filename of r:
//
//	PROJECT-TYPE-PHASE-ROLE-Title[-YYYYMMDD][.ext]
//
// Empty segments are skipped and a malformed date is left out. It returns ""
// when no segment is set, even if the record has an extension.
func DeriveFilename(r *models.FileRecord, projectCode string) string {
	if r == nil {
		return ""
	}
	candidates := []string{projectCode, r.DocumentType, r.Phase, r.Role, r.Title}
	parts := make([]string, 0, len(candidates)+1)
	for _, p := range candidates {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if d, ok := ParseDate(r.Date); ok {
		parts = append(parts, d.Format(DateLayout))
	}
	if len(parts) == 0 {
		return ""
	}

	name := strings.Join(parts, Separator)
	if r.Extension != "" {
		name += "." + r.Extension
	}
	return name
}

// DeriveArchivePath returns targetPath/filename, or "" when either part is
// empty. Callers should check IsComplete first.
func DeriveArchivePath(r *models.FileRecord, projectCode string) string {
	if r == nil || r.TargetPath == "" {
		return ""
	}
	name := DeriveFilename(r, projectCode)
	if name == "" {
		return ""
	}
	return r.TargetPath + "/" + name
}

// SplitName splits a filename into stem and extension (without the dot).
// Leading dots belong to the stem, so ".env" has no extension.
func SplitName(name string) (stem, ext string) {
	if name == "" {
		return "", ""
	}
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	i := strings.LastIndex(base, ".")
	if i <= 0 || strings.Trim(base[:i], ".") == "" {
		return base, ""
	}
	return base[:i], base[i+1:]
}
