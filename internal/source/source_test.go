package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const gradesPage = `<!DOCTYPE html>
<html>
<head><title>歷年成績</title><script>var x = "<td>1</td>";</script></head>
<body>
<div class="banner">國立某大學&nbsp;歷年成績表</div>
<table id="grades">
	<tr><th>選別</th><th>科目</th><th>上學期_學分</th><th>上學期_成績</th><th>下學期_學分</th><th>下學期_成績</th></tr>
	<tr><td colspan="6">113&nbsp;學年</td></tr>
	<tr><td>必</td><td>  英文 <br>(一) </td><td>2</td><td>85</td><td>2</td><td>90</td></tr>
	<tr style="display: none"><td>必</td><td>隱藏</td><td>2</td><td>1</td><td>2</td><td>1</td></tr>
	<tr>
		<td>註</td>
		<td><table><tr><td>內層</td><td>表格</td></tr></table>外層</td>
	</tr>
</table>
<p>學業成績總平均：85.5　88</p>
<div hidden>不應出現</div>
</body>
</html>`

func TestFromHTML(t *testing.T) {
	content, err := FromHTML(strings.NewReader(gradesPage))
	require.NoError(t, err)
	require.NoError(t, content.Validate())

	expected := []record.Table{
		{
			{"選別", "科目", "上學期_學分", "上學期_成績", "下學期_學分", "下學期_成績"},
			{"113 學年"},
			{"必", "英文 (一)", "2", "85", "2", "90"},
			{"註", "外層"},
		},
		{
			{"內層", "表格"},
		},
	}
	diff := cmp.Diff(expected, content.Tables)
	if diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, "國立某大學 歷年成績表", content.Lines[0])
	require.Contains(t, content.Lines, "學業成績總平均：85.5 88")
	for _, line := range content.Lines {
		require.NotContains(t, line, "不應出現")
		require.NotContains(t, line, "隱藏")
		require.NotContains(t, line, "var x")
	}
}

func TestFromHTMLHiddenTable(t *testing.T) {
	content, err := FromHTML(strings.NewReader(`<body>
		<div style="display:none"><table><tr><td>a</td><td>b</td></tr></table></div>
		<table><tr><td>c</td><td>d</td></tr></table>
	</body>`))
	require.NoError(t, err)
	require.Equal(t, []record.Table{{{"c", "d"}}}, content.Tables)
	require.Equal(t, []string{"c d"}, content.Lines)
}

func TestFromText(t *testing.T) {
	content, err := FromText(strings.NewReader("113學年第一學期\r\n\n  選 微積分   3 78 3 82  \n\xff\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"113學年第一學期", "選 微積分 3 78 3 82", "\uFFFD"}, content.Lines)
	require.NoError(t, content.Validate())
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grades" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(gradesPage))
	}))
	defer server.Close()

	output, err := NewPageOutput(t.TempDir())
	require.NoError(t, err)
	rec := telemetry.NewRecorder()
	f := NewFetcher(rec, WithRateLimit(0), WithPageOutput(output))

	content, err := f.Fetch(context.Background(), server.URL+"/grades")
	require.NoError(t, err)
	require.Len(t, content.Tables, 2)

	saved, err := os.ReadFile(filepath.Join(output.directory, output.Name(server.URL+"/grades")))
	require.NoError(t, err)
	require.Equal(t, gradesPage, string(saved))

	_, err = f.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	require.Len(t, rec.Find(telemetry.REPORT_BROKEN, report_fetcher_fetch), 1)
}

func TestPageOutputName(t *testing.T) {
	o := PageOutput{}

	testCases := []struct {
		url      string
		expected string
	}{
		{url: "https://portal.example.edu/grades/history", expected: "portal.example.edu_grades_history.html"},
		{url: "https://portal.example.edu/rank?year=113&term=2", expected: "portal.example.edu_rank_year_113_term_2.html"},
		{url: "http://127.0.0.1:8080/page.html", expected: "127.0.0.1_8080_page.html"},
		{url: "", expected: "page.html"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, o.Name(test.url), test.url)
	}
}
