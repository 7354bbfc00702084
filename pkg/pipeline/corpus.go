package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxLineSize = 1 << 20

// SampleTexts returns the demo corpus: two sentences about Paris and two
// about Tokyo.
func SampleTexts() []string {
	return []string{
		"The capital of France is Paris",
		"Paris is known for the Eiffel Tower",
		"The capital of Japan is Tokyo",
		"Tokyo is famous for sushi",
	}
}

// LoadTexts reads one document per line, trimming surrounding whitespace and
// skipping blank lines.
func LoadTexts(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	texts := []string{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		texts = append(texts, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return texts, nil
}

// LoadFiles concatenates the documents of every file in order.
func LoadFiles(paths ...string) ([]string, error) {
	texts := []string{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}

		t, err := LoadTexts(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		texts = append(texts, t...)
	}
	return texts, nil
}
