package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SecureFilename приводит имя загруженного файла к безопасному виду:
// раскладывает Unicode (NFKD) и отбрасывает не-ASCII символы, заменяет
// разделители путей и пробелы на "_", оставляет только [A-Za-z0-9_.-]
// и обрезает точки/подчеркивания по краям.
// Может вернуть пустую строку ("../../" -> "").
func SecureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)

	var ascii strings.Builder
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			ascii.WriteByte(' ')
		case r < 0x80:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var cleaned strings.Builder
	for _, r := range joined {
		if isFilenameRune(r) {
			cleaned.WriteRune(r)
		}
	}
	return strings.Trim(cleaned.String(), "._")
}

func isFilenameRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '.' || r == '-'
}
