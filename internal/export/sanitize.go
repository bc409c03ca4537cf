package export

import (
	"strings"
	"time"
	"unicode"
)

var fileNameReplacer = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeComponent makes s safe as one archive path component. The reserved
// characters \ / : * ? " < > | and control characters become underscores;
// strict additionally replaces whitespace. Surrounding whitespace is trimmed.
func SanitizeComponent(s string, strict bool) string {
	s = fileNameReplacer.Replace(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || (strict && unicode.IsSpace(r)) {
			return '_'
		}
		return r
	}, s)
}

// FormatShotTime renders t in loc as YYYY-MM-DD_HH-MM-SS.
func FormatShotTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02_15-04-05")
}

// ArchiveName returns the download name for an archive created at now.
func ArchiveName(project string, now time.Time) string {
	name := SanitizeComponent(project, true)
	if name == "" {
		name = "stampcam"
	}
	return name + "_" + now.Format("2006-01-02_15-04-05") + ".zip"
}
