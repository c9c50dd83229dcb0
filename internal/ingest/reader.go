package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var ErrFileNotFound = errors.New("sales data file not found")

// fallbackEncodings are tried in order when the file is not valid UTF-8.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{name: "windows-1252", enc: charmap.Windows1252},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
}

// ReadLines reads the sales log, drops the header row and blank lines, and
// returns the trimmed data lines along with the encoding that was used.
func ReadLines(path string) ([]string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	text, enc, err := decode(raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return splitLines(text), enc, nil
}

func decode(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}

	var lastErr error
	for _, fe := range fallbackEncodings {
		out, err := fe.enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = err
			continue
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			lastErr = fmt.Errorf("undefined characters for %s", fe.name)
			continue
		}
		return string(out), fe.name, nil
	}
	return "", "", lastErr
}

func splitLines(text string) []string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	lines := make([]string, 0)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
