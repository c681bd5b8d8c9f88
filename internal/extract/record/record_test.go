package record

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	r := Record{Section: "113"}
	r.SetString("category", "必")
	r.SetString("subject", "英文")
	r.SetString("note", "")
	require.Len(t, r.Fields, 2)
	require.True(t, r.Valid())

	r.Set("term1_credit", Int(2))
	r.Set("term1_grade", Absent())
	r.Set("subject", String("英文(一)"))

	require.Equal(t, "英文(一)", r.Raw("subject"))
	require.Equal(t, "2", r.Raw("term1_credit"))
	require.Equal(t, "", r.Raw("missing"))
	require.Equal(t, 3, r.NonEmpty())

	diff := cmp.Diff(map[string]any{
		"section":      "113",
		"category":     "必",
		"subject":      "英文(一)",
		"term1_credit": int64(2),
	}, r.Map())
	if diff != "" {
		t.Fatal(diff)
	}

	clone := r.Clone()
	clone.Set("category", String("選"))
	require.Equal(t, "必", r.Raw("category"))

	single := Record{Section: "113", Fields: []Field{{Name: "subject", Value: String("英文")}}}
	require.False(t, single.Valid())
}

func TestValueText(t *testing.T) {
	require.Equal(t, "", Absent().Text())
	require.Equal(t, "85.5", Float(85.5).Text())
	require.Equal(t, "120", Int(120).Text())
	require.True(t, String("").IsEmpty())
	require.False(t, Int(0).IsEmpty())
}

func TestContentValidate(t *testing.T) {
	testCases := []struct {
		name    string
		content Content
		valid   bool
	}{
		{name: "lines", content: Content{Lines: []string{"113學年第一學期", "選 微積分 3 78 3 82"}}, valid: true},
		{name: "table with empty cells", content: Content{Tables: []Table{{{"必", "", "英文"}}}}, valid: true},
		{name: "empty line", content: Content{Lines: []string{"a", ""}}},
		{name: "untrimmed line", content: Content{Lines: []string{" a"}}},
		{name: "multi line", content: Content{Lines: []string{"a\nb"}}},
		{name: "invalid utf-8 cell", content: Content{Tables: []Table{{{"\xff"}}}}},
	}

	for _, test := range testCases {
		err := test.content.Validate()
		if test.valid {
			require.NoError(t, err, test.name)
			continue
		}
		var contractErr *InputContractError
		require.True(t, errors.As(err, &contractErr), test.name)
	}
}

func TestTextLines(t *testing.T) {
	content := Content{Tables: []Table{
		{{"113 學年", "", ""}, {"", "", ""}, {"必", "英文", "2"}},
	}}
	require.Equal(t, []string{"113 學年", "必 英文 2"}, content.TextLines())
	require.Equal(t, 3, content.Size())
}
