package scanner

import (
	"strings"
)

// languageMap maps file extensions to the languages found in Java projects.
var languageMap = map[string]string{
	".java":       "java",
	".jav":        "java",
	".kt":         "kotlin",
	".kts":        "kotlin",
	".groovy":     "groovy",
	".gradle":     "groovy",
	".scala":      "scala",
	".properties": "properties",
	".xml":        "xml",
	".form":       "xml",
	".yml":        "yaml",
	".yaml":       "yaml",
	".json":       "json",
}

// DetectLanguage returns the language for a file extension, or "" when the
// extension is not recognized.
func DetectLanguage(ext string) string {
	return languageMap[strings.ToLower(ext)]
}
