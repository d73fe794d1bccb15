// Package naming maps token paths to external variable names and back.
//
// Color families carry two historical naming schemes: the alias form
// ("colors/cornflower/100") and the older scale-index form
// ("colors/scale-01/100"). Both project onto the same token; lookups try
// the alias form first and fall back to the index form.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opencode-ai/tint/internal/models"
)

var scaleIndexPattern = regexp.MustCompile(`^scale-(\d{2,})$`)

// Mapper holds the family registry behind the scale-index scheme.
// Projection in both directions is pure; the only state is which scale
// index each family alias was assigned at registration time.
type Mapper struct {
	indexByAlias map[string]int
	// aliasByIndex keeps removed families as empty tombstones so indexes
	// stay stable for the life of the store.
	aliasByIndex []string
}

// New creates a mapper with no registered families.
func New() *Mapper {
	return &Mapper{indexByAlias: make(map[string]int)}
}

// RegisterFamily assigns the next scale index to alias. Registration is
// idempotent; re-registering returns the existing index. Indexes are
// 1-based and follow registration order.
func (m *Mapper) RegisterFamily(alias string) int {
	if idx, ok := m.indexByAlias[alias]; ok {
		return idx
	}
	m.aliasByIndex = append(m.aliasByIndex, alias)
	idx := len(m.aliasByIndex)
	m.indexByAlias[alias] = idx
	return idx
}

// UnregisterFamily removes alias from the registry. Its index is retired,
// never reassigned.
func (m *Mapper) UnregisterFamily(alias string) {
	idx, ok := m.indexByAlias[alias]
	if !ok {
		return
	}
	delete(m.indexByAlias, alias)
	m.aliasByIndex[idx-1] = ""
}

// Snapshot returns the raw registry in index order, retired indexes
// included as empty entries. Feed it back through Restore to rebuild an
// identical mapper.
func (m *Mapper) Snapshot() []string {
	return append([]string(nil), m.aliasByIndex...)
}

// Restore replaces the registry with a previously snapshotted family
// list, preserving retired indexes.
func (m *Mapper) Restore(families []string) {
	m.aliasByIndex = append([]string(nil), families...)
	m.indexByAlias = make(map[string]int, len(families))
	for i, alias := range families {
		if alias != "" {
			m.indexByAlias[alias] = i + 1
		}
	}
}

// Families returns the registered family aliases in index order.
func (m *Mapper) Families() []string {
	out := make([]string, 0, len(m.indexByAlias))
	for _, alias := range m.aliasByIndex {
		if alias != "" {
			out = append(out, alias)
		}
	}
	return out
}

// Registered reports whether alias names a known color family.
func (m *Mapper) Registered(alias string) bool {
	_, ok := m.indexByAlias[alias]
	return ok
}

// ToExternal projects a token path to its canonical external name,
// which uses the alias form for color families.
func (m *Mapper) ToExternal(path models.Path) string {
	return strings.Join(path, "/")
}

// ScaleIndexName returns the scale-index form of a color-family step,
// e.g. "colors/scale-01/100". The second return value is false when path
// is not a step of a registered family.
func (m *Mapper) ScaleIndexName(path models.Path) (string, bool) {
	family, step, ok := models.ScaleMember(path)
	if !ok {
		return "", false
	}
	idx, ok := m.indexByAlias[family]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("colors/scale-%02d/%s", idx, step), true
}

// ExternalNames returns every external name that aliases path: the alias
// form always, plus the scale-index form for registered family steps.
func (m *Mapper) ExternalNames(path models.Path) []string {
	names := []string{m.ToExternal(path)}
	if indexed, ok := m.ScaleIndexName(path); ok {
		names = append(names, indexed)
	}
	return names
}

// FromExternal maps an external name back to a token path. The alias form
// wins: a family literally named like "scale-01" shadows the index scheme.
// Unknown scale indexes and malformed names return false.
func (m *Mapper) FromExternal(name string) (models.Path, bool) {
	segments := strings.Split(name, "/")
	if len(segments) == 0 {
		return nil, false
	}
	path := models.Path(segments)
	if _, err := models.ParsePath(path.String()); err != nil {
		return nil, false
	}

	family, step, isScaleStep := models.ScaleMember(path)
	if !isScaleStep {
		return path, true
	}

	// Alias form first.
	if m.Registered(family) {
		return path, true
	}
	if match := scaleIndexPattern.FindStringSubmatch(family); match != nil {
		idx, err := strconv.Atoi(match[1])
		if err != nil || idx < 1 || idx > len(m.aliasByIndex) {
			return nil, false
		}
		alias := m.aliasByIndex[idx-1]
		if alias == "" {
			return nil, false
		}
		return models.ScaleStepPath(alias, step), true
	}

	// Unregistered alias: positional mapping still holds for plain paths.
	return path, true
}
