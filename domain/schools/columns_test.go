package schools

import (
	"testing"

	"schoolscope/domain/table"
)

func TestColumnSubsetsAreInSchema(t *testing.T) {
	schema := Schema()
	subsets := map[string][]string{
		"key":         KeyColumns(),
		"deprivation": DeprivationColumns(),
		"performance": PerformanceColumns(),
	}
	for name, cols := range subsets {
		for _, col := range cols {
			if _, ok := schema[col]; !ok {
				t.Errorf("%s column %s not in schema", name, col)
			}
			if schema[col] != table.KindNumeric {
				t.Errorf("%s column %s should be numeric", name, col)
			}
		}
	}
}

func TestIdentityColumns(t *testing.T) {
	schema := Schema()
	for _, col := range IdentityColumns() {
		if col == ColURN {
			continue // the URN is the row identity, never a table column
		}
		if _, ok := schema[col]; !ok {
			t.Errorf("identity column %s not in schema", col)
		}
	}
}
