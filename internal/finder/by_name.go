package finder

import (
	"path/filepath"
	"strings"

	"github.com/aiomayo/portwatch/internal/detect"
	"github.com/aiomayo/portwatch/internal/inventory"
)

type nameStrategy struct{}

func (s *nameStrategy) Match(r inventory.Record, query detect.Query) bool {
	if query.Type == detect.TypeGlob {
		return matchGlob(r.Process.Name, query.Name) || matchGlob(r.Process.Path, query.Name)
	}
	return matchName(r.Process, query.Name)
}

func matchName(info inventory.ProcessInfo, name string) bool {
	if info.Name == inventory.UnknownName {
		return false
	}
	if strings.EqualFold(info.Name, name) {
		return true
	}
	return info.Path != "" && strings.EqualFold(filepath.Base(info.Path), name)
}

func matchGlob(value, pattern string) bool {
	if value == "" {
		return false
	}
	matched, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(value))
	if err != nil {
		return false
	}
	return matched
}
