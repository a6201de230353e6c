package downloader

import (
	"bytes"
	"io"
	"os"
)

// DetectFileType reads the first bytes of the file to determine its container.
// Returns the suggested extension (without dot), "html" for a web page, or
// empty string if unknown.
func DetectFileType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return sniff(header[:n]), nil
}

func sniff(header []byte) string {
	n := len(header)
	if n < 4 {
		return "" // Too short
	}

	// ISO base media: ....ftyp<brand>
	if n >= 12 && string(header[4:8]) == "ftyp" {
		if string(header[8:10]) == "qt" {
			return "mov"
		}
		return "mp4"
	}

	// Matroska / WebM: 1A 45 DF A3
	if bytes.Equal(header[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return "mkv"
	}

	// FLV
	if string(header[0:3]) == "FLV" {
		return "flv"
	}

	// A CDN error page instead of media
	trimmed := bytes.ToLower(bytes.TrimLeft(header, " \t\r\n\xef\xbb\xbf"))
	if bytes.HasPrefix(trimmed, []byte("<!doc")) || bytes.HasPrefix(trimmed, []byte("<html")) {
		return "html"
	}

	return ""
}
