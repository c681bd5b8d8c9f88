package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/kind"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/textutil"

	"github.com/google/go-cmp/cmp"
)

// properties of the engine, checked for every kind and arbitrary page text:
// - valid content never fails
// - no more records than input rows and lines
// - every record carries a section
// - a second run over the same content gives the same records

func contentOf(text string, tables bool) record.Content {
	lines := textutil.Lines(text)
	if !tables {
		return record.Content{Lines: lines}
	}
	table := record.Table{}
	for _, line := range lines {
		table = append(table, strings.Split(line, "|"))
	}
	return record.Content{Tables: []record.Table{table}}
}

func FuzzRun(f *testing.F) {
	f.Add(strings.Join(gradesPage, "\n"), false)
	f.Add("選別|科目|上學期_學分|上學期_成績|下學期_學分|下學期_成績\n113 學年\n必|英文|2|85|2|90", true)
	f.Add("學年|學期|修習學分|學期平均|班排名|系排名\n113|2|22|88.2|3/45|10/120", true)
	f.Add("學年度|學期|學分|平均|名次|人數\n113|1|20|85.3|3/10/45|40/80/200", true)
	f.Add("113學年度第1學期\nMIS-101-01-A1 資料庫管理\n王小明\n2\n0\n不扣考", false)
	f.Add("該生至113學年第2學期止 累計平均排名 5 / 60", false)

	var engines []Engine
	for _, name := range kind.Names() {
		cfg, err := kind.Builtin(name)
		if err != nil {
			f.Fatal(err)
		}
		e, err := NewEngine(cfg, WithTelemetryAPI(telemetry.Nop{}))
		if err != nil {
			f.Fatal(err)
		}
		engines = append(engines, e)
	}

	f.Fuzz(func(t *testing.T, text string, tables bool) {
		if !utf8.ValidString(text) {
			t.Skip()
		}
		content := contentOf(text, tables)

		for _, e := range engines {
			res, err := e.Run(content, Options{Section: ""})
			if err != nil {
				t.Fatalf("%s: valid content failed: %v", e.Kind().Name, err)
			}
			if len(res.Records) > content.Size() {
				t.Fatalf("%s: %d records from %d rows", e.Kind().Name, len(res.Records), content.Size())
			}
			for _, r := range res.Records {
				if r.Section == "" {
					t.Fatalf("%s: record without a section: %#v", e.Kind().Name, r)
				}
			}

			again, err := e.Run(content, Options{})
			if err != nil {
				t.Fatal(err)
			}
			diff := cmp.Diff(res.Records, again.Records)
			if diff != "" {
				t.Fatalf("%s: second run differs: %s", e.Kind().Name, diff)
			}
		}
	})
}
