package downloader

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	filenameReplacer = strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-",
		"／", "-", "＼", "-", "：", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
		"＊", "", "？", "", "＜", "", "＞", "", "｜", "",
		"【", "", "】", "", "「", "", "」", "",
		"\n", " ", "\t", " ", "\r", "",
	)
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Windows refuses these as file names regardless of extension
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	result := urlPattern.ReplaceAllString(name, "")
	result = filenameReplacer.Replace(result)
	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	result = spacePattern.ReplaceAllString(result, " ")
	result = strings.Trim(strings.TrimSpace(result), ".")

	// 60 runes keeps CJK titles well under the usual 255-byte name limit
	const maxRunes = 60
	if runes := []rune(result); len(runes) > maxRunes {
		result = string(runes[:maxRunes])
	}
	result = strings.TrimSpace(result)

	if reservedNames[strings.ToUpper(result)] {
		result = "_" + result
	}
	return result
}
