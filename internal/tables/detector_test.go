package tables

import (
	"testing"

	"github.com/avolkov/mdex/internal/model"
)

func testDetector() *Detector {
	return NewDetector(model.DefaultConfig().Tables)
}

func TestDetectPipeTable(t *testing.T) {
	text := `Revenue by segment was as follows

| Segment | 2003 | 2002 |
| Retail | 1,200 | 1,100 |
| Wholesale | 800 | 750 |

Gross margin improved across both segments.`

	tables := testDetector().Detect(text)
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.Type != "pipe" {
		t.Errorf("type = %q, want pipe", tbl.Type)
	}
	if tbl.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", tbl.Confidence)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(tbl.Rows))
	}
	wantHeader := []string{"Segment", "2003", "2002"}
	for i, cell := range wantHeader {
		if tbl.Rows[0][i] != cell {
			t.Errorf("header cell %d = %q, want %q", i, tbl.Rows[0][i], cell)
		}
	}
	if tbl.Title != "Revenue by segment was as follows" {
		t.Errorf("title = %q", tbl.Title)
	}
}

func TestDetectDelimitedTable(t *testing.T) {
	text := `Selected financial data
Item            2003      2002
----------------------------------
Revenue        1,200     1,100
Net income       150       120

The table above summarizes results.`

	tables := testDetector().Detect(text)
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1: %+v", len(tables), tables)
	}
	tbl := tables[0]
	if tbl.Type != "delimited" {
		t.Errorf("type = %q, want delimited", tbl.Type)
	}
	if tbl.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", tbl.Confidence)
	}
	if tbl.Title != "Selected financial data" {
		t.Errorf("title = %q", tbl.Title)
	}
	// header + two data rows
	if len(tbl.Rows) < 3 {
		t.Errorf("got %d rows, want at least 3", len(tbl.Rows))
	}
}

func TestDetectAlignedTable(t *testing.T) {
	text := `The following table sets forth operating results

                  Year Ended December 31,
                  2003        2002        2001
Revenue          1,200       1,100       1,050
Cost of sales      700         680         660
Total              500         420         390

Revenue grew in each period presented.`

	tables := testDetector().Detect(text)
	if len(tables) == 0 {
		t.Fatal("no table detected")
	}
	tbl := tables[0]
	if tbl.Type != "aligned" {
		t.Errorf("type = %q, want aligned", tbl.Type)
	}
	if tbl.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", tbl.Confidence)
	}
	if len(tbl.Rows) < 3 {
		t.Errorf("got %d rows, want several", len(tbl.Rows))
	}
}

func TestDetectNoOverlaps(t *testing.T) {
	text := `Quarterly results

Quarter         Revenue      Income
------------------------------------
Q1 2003           300           40
Q2 2003           320           45
Q3 2003           310           42

Other data

| Item | Value |
| Cash | 500 |
| Debt | 200 |
`
	tables := testDetector().Detect(text)
	if len(tables) < 2 {
		t.Fatalf("got %d tables, want at least 2", len(tables))
	}
	for i := 1; i < len(tables); i++ {
		if tables[i].StartLine <= tables[i-1].EndLine {
			t.Errorf("table %d (lines %d-%d) overlaps table %d (lines %d-%d)",
				i, tables[i].StartLine, tables[i].EndLine,
				i-1, tables[i-1].StartLine, tables[i-1].EndLine)
		}
		if tables[i].StartLine < tables[i-1].StartLine {
			t.Error("tables not sorted by start line")
		}
	}
}

func TestDetectIgnoresProse(t *testing.T) {
	text := "Revenue increased by 12% compared to the prior year.\n" +
		"The increase was driven by higher volumes.\n" +
		"Margins were stable.\n"
	if tables := testDetector().Detect(text); len(tables) != 0 {
		t.Errorf("detected %d tables in plain prose", len(tables))
	}
}

func TestDetectTooFewRows(t *testing.T) {
	// a lone pipe line must not become a table
	text := "see | the | notes\nplain prose follows here.\n"
	if tables := testDetector().Detect(text); len(tables) != 0 {
		t.Errorf("single pipe line became a table: %+v", tables)
	}
}

func TestTitleSkipsBlankAndNumberLines(t *testing.T) {
	text := `Contractual obligations

42
| Obligation | Amount |
| Leases | 300 |
| Debt | 900 |
`
	tables := testDetector().Detect(text)
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if tables[0].Title != "Contractual obligations" {
		t.Errorf("title = %q, want the prose line above the page number", tables[0].Title)
	}
}
