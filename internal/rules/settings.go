package rules

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/invopop/yaml"

	"github.com/woozymasta/mw-randomizer/internal/object"
)

// Settings keys read by the randomizer.
const (
	KeyRandomizePositions   = "randomizePositions"
	KeyRandomizeStageOrder  = "levelOrder.randomizeStageOrder"
	KeyRandomizeRoundOrder  = "levelOrder.randomizeRoundOrder"
	KeyKeepFirstRound       = "levelOrder.keep_1-1_first"
	KeyKeepLastRound        = "levelOrder.keep_5-3_last"
	KeyRandomizeMusic       = "randomizeMusic"
	KeyMusicShuffleStandard = "randomizeMusic.shuffleStandard"
	KeyMusicInsertCustom    = "randomizeMusic.insertCustom"
	KeyReplaceTitleText     = "replaceTitleText"
)

// Settings is a flat map of feature toggles; absent keys fall back to the
// default given by the caller.
type Settings map[string]bool

// Enabled returns the value of key or def when the key is absent.
func (s Settings) Enabled(key string, def bool) bool {
	if v, ok := s[key]; ok {
		return v
	}

	return def
}

// Set parses a "key=bool" assignment.
func (s Settings) Set(kv string) error {
	key, val, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return configErr("settings", "expected key=bool, got %q", kv)
	}

	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return configErr("settings", "%s: %q is not a boolean", key, val)
	}
	s[key] = b

	return nil
}

// Keys returns the keys in sorted order.
func (s Settings) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// PositionsKey toggles randomization of one object type on one stage.
func PositionsKey(stage string, typ uint16) string {
	return fmt.Sprintf("%s.%s.type:%s", KeyRandomizePositions, stage, object.TypeKey(typ))
}

// ProcedureKey toggles one procedure on one stage.
func ProcedureKey(stage, proc string) string {
	return fmt.Sprintf("executeProcedures.%s.proc:%s", stage, proc)
}

// ParseSettings reads a YAML mapping of keys to booleans.
func ParseSettings(data []byte) (Settings, error) {
	s := Settings{}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &ConfigError{Path: "settings", Err: err}
	}
	if s == nil {
		s = Settings{}
	}

	return s, nil
}

// LoadSettings reads a settings file.
func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseSettings(raw)
}
