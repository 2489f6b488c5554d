package stats

import (
	"encoding/json"
	"fmt"

	"reelplay/internal/models"
)

// legacyFieldNames maps pre-versioning field names onto their current
// counterparts. Loaders apply them only when the stored document carries
// no (or an unknown) schema version tag.
var legacyFieldNames = map[string]string{
	"played":         "games_played",
	"wins":           "games_won",
	"streak":         "current_streak",
	"max_streak":     "best_streak",
	"best_time":      "best_time_ms",
	"total_time":     "total_time_ms",
	"last_completed": "last_completed_date",
	"completed":      "completed_puzzles",
}

// Migrate decodes a persisted stats document. Known fields map onto the
// record (field-wise, zero defaults for anything missing); unknown
// fields are preserved verbatim so a newer app version's data survives a
// round-trip through an older one.
func Migrate(data []byte, tag models.Variant) (*models.UserStats, map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("stats document is not an object: %w", err)
	}

	version := 0
	if raw, ok := doc["schema_version"]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			version = 0
		}
	}
	if version == 0 || version > models.StatsSchemaVersion {
		for legacy, current := range legacyFieldNames {
			if raw, ok := doc[legacy]; ok {
				if _, taken := doc[current]; !taken {
					doc[current] = raw
				}
				delete(doc, legacy)
			}
		}
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}
	record := models.NewUserStats(tag)
	if err := json.Unmarshal(merged, record); err != nil {
		return nil, nil, fmt.Errorf("stats document does not match schema: %w", err)
	}
	record.SchemaVersion = models.StatsSchemaVersion
	record.Variant = tag

	extra := make(map[string]json.RawMessage)
	for key, raw := range doc {
		if !knownField(key) {
			extra[key] = raw
		}
	}
	if len(extra) == 0 {
		extra = nil
	}
	return record, extra, nil
}

// knownFields is derived once from the record's own JSON encoding so the
// migration can never drift from the struct definition.
var knownFields = func() map[string]bool {
	data, err := json.Marshal(models.UserStats{
		LastCompletedDate: "x", // force omitempty fields to appear
	})
	if err != nil {
		panic(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		panic(err)
	}
	fields := make(map[string]bool, len(doc))
	for key := range doc {
		fields[key] = true
	}
	return fields
}()

func knownField(name string) bool {
	return knownFields[name]
}
