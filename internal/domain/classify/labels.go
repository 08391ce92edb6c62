package classify

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ClassCount is the fixed number of output classes the model contract
// requires. A label map with any other count is a fatal startup error.
const ClassCount = 5

// LoadLabels reads a label map file of "index: label" lines and returns
// the ordered label list. Exactly ClassCount labels are required.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLabelMap, path, err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		_, label, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		labels = append(labels, strings.TrimSpace(label))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLabelMap, path, err)
	}

	if len(labels) != ClassCount {
		return nil, fmt.Errorf("%w: expected %d labels, got %d", ErrLabelMap, ClassCount, len(labels))
	}
	return labels, nil
}
