package strategy

import (
	"testing"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/record"

	"github.com/stretchr/testify/require"
)

const attendanceMarker = `(\d{3}).*?第\s*(\S+?)\s*學期`

func attendanceBlock(t *testing.T, tel telemetry.API) Block {
	t.Helper()
	b, err := NewBlock(BlockConfig{
		CodeField:     "course_code",
		NameField:     "course_name",
		PersonField:   "teacher",
		StatusField:   "status",
		NumericFields: []string{"absences", "barred_hours"},
		Noise:         []string{"課程代碼", "缺曠統計"},
	}, newClassifier(t, attendanceMarker), tel)
	require.NoError(t, err)
	return b
}

func TestBlock(t *testing.T) {
	rec := telemetry.NewRecorder()
	b := attendanceBlock(t, rec)

	out := b.Extract(Input{Content: record.Content{Lines: []string{
		"MIS-100-01-A1 不應出現",
		"113學年度第1學期",
		"課程代碼 課程名稱 授課教師",
		"MIS-101-01-A1 資料庫管理",
		"王小明",
		"2",
		"0",
		"不扣考",
		"MIS-102-01-A1",
		"網路概論",
		"李大華",
		"明細",
		"扣考 (缺課達1/3)",
		"6",
		"113學年度第2學期",
		"MIS-201-01-A1",
		"112學年度第2學期",
		"MIS-202-01-A1",
		"專題 討論",
		"3 / 9 / 12",
	}}})

	requireRecords(t, []record.Record{
		{
			Section: "113-1",
			Fields: fields(
				"course_code", "MIS-101-01-A1",
				"course_name", "資料庫管理",
				"teacher", "王小明",
				"absences", "2",
				"barred_hours", "0",
				"status", "不扣考",
			),
		},
		{
			Section: "113-1",
			Fields: fields(
				"course_code", "MIS-102-01-A1",
				"course_name", "網路概論",
				"teacher", "李大華",
				"status", "扣考 (缺課達1/3)",
				"absences", "6",
			),
		},
		{
			Section: "112-2",
			Fields: fields(
				"course_code", "MIS-202-01-A1",
				"course_name", "專題 討論",
				"absences", "3",
				"barred_hours", "9",
			),
		},
	}, out.Records)

	// before the marker, the noise line and the lone code of 113-2
	require.Equal(t, 3, out.Skipped)

	overflow := rec.Find(telemetry.REPORT_WARNING, report_block_numeric_overflow)
	require.Len(t, overflow, 1)
	require.Equal(t, []string{"12"}, overflow[0].Params[0].(*record.AnomalousToken).Extra)
}

func TestNewBlockInvalid(t *testing.T) {
	_, err := NewBlock(BlockConfig{NameField: "course_name"}, newClassifier(t), telemetry.NewRecorder())
	require.Error(t, err)
}
