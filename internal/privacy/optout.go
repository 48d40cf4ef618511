package privacy

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"dmr/internal/providers"
	"dmr/internal/structures"
)

// OptOutRegistry is the set of author identifiers excluded from
// persistence. It is loaded once at startup and read-only afterwards.
type OptOutRegistry struct {
	authors map[string]struct{}
}

func NewOptOutRegistry(conf *structures.Config, logger providers.Logger) (*OptOutRegistry, error) {
	reg := &OptOutRegistry{authors: make(map[string]struct{})}
	path := conf.Privacy.OptOutFile
	if path == "" {
		return reg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open opt-out list %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reg.authors[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read opt-out list %s: %w", path, err)
	}

	logger.Infof(providers.TypePrivacy, "Loaded %d opt-out authors from %s", len(reg.authors), path)
	return reg, nil
}

func (r *OptOutRegistry) Contains(author string) bool {
	_, ok := r.authors[author]
	return ok
}

func (r *OptOutRegistry) Len() int {
	return len(r.authors)
}
