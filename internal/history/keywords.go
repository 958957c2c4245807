package history

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/caira/backend/pkg/logger"
)

// KeywordMap maps a query token to the canonical incident type it signals.
// The mapping is configuration data so operators can extend it without a
// rebuild.
type KeywordMap map[string]string

// LoadKeywordMap reads a YAML file of the form:
//
//	database_timeout: [timeout, database, connection]
//	auth_failure: [login, auth, token]
//
// A keyword claimed by more than one incident type keeps its first owner.
func LoadKeywordMap(path string) (KeywordMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	var byType map[string][]string
	if err := yaml.Unmarshal(raw, &byType); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrLoad, path, err)
	}

	return buildKeywordMap(byType), nil
}

func buildKeywordMap(byType map[string][]string) KeywordMap {
	types := make([]string, 0, len(byType))
	for incidentType := range byType {
		types = append(types, incidentType)
	}
	// Sorted iteration makes conflict resolution deterministic.
	sort.Strings(types)

	km := make(KeywordMap)
	for _, incidentType := range types {
		for _, kw := range byType[incidentType] {
			if owner, exists := km[kw]; exists && owner != incidentType {
				logger.Warn("Keyword mapped to multiple incident types",
					zap.String("keyword", kw),
					zap.String("kept", owner),
					zap.String("ignored", incidentType),
				)
				continue
			}
			km[kw] = incidentType
		}
	}
	return km
}
