package domain

import "strings"

// Table names one of the fixed master database text tables. The name doubles
// as the base name of the JSON file produced for it.
type Table string

const (
	TableTextData            Table = "text_data"
	TableCharacterSystemText Table = "character_system_text"
	TableRaceJikkyoComment   Table = "race_jikkyo_comment"
	TableRaceJikkyoMessage   Table = "race_jikkyo_message"
)

// AllTables lists the tables in extraction order.
var AllTables = []Table{
	TableTextData,
	TableCharacterSystemText,
	TableRaceJikkyoComment,
	TableRaceJikkyoMessage,
}

// TableShape tells whether a table is keyed by two ids or one.
type TableShape int

const (
	ShapeNested TableShape = iota + 1
	ShapeFlat
)

func (s TableShape) String() string {
	switch s {
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// Shape returns the output shape of the table.
func (t Table) Shape() TableShape {
	switch t {
	case TableTextData, TableCharacterSystemText:
		return ShapeNested
	case TableRaceJikkyoComment, TableRaceJikkyoMessage:
		return ShapeFlat
	default:
		return 0
	}
}

// IsValid reports whether t is one of the known tables.
func (t Table) IsValid() bool {
	return t.Shape() != 0
}

// FileName returns the output/snapshot file name for the table.
func (t Table) FileName() string {
	return string(t) + ".json"
}

func (t Table) String() string { return string(t) }

// ParseTables parses a comma-separated table list. Blank input yields AllTables.
// Unknown names are returned as the second value so callers can report them.
func ParseTables(s string) ([]Table, []string) {
	if strings.TrimSpace(s) == "" {
		return AllTables, nil
	}

	want := make(map[Table]bool)
	var unknown []string
	for _, part := range strings.Split(s, ",") {
		name := Table(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !name.IsValid() {
			unknown = append(unknown, string(name))
			continue
		}
		want[name] = true
	}

	// Keep canonical order regardless of input order.
	var tables []Table
	for _, t := range AllTables {
		if want[t] {
			tables = append(tables, t)
		}
	}
	return tables, unknown
}

// NestedRow is a source row keyed by two ids: (category, index) for
// text_data and (character_id, voice_id) for character_system_text.
type NestedRow struct {
	Outer int64
	Inner int64
	Text  string
}

// FlatRow is a source row keyed by a single id (race_jikkyo_comment,
// race_jikkyo_message).
type FlatRow struct {
	ID   int64
	Text string
}
