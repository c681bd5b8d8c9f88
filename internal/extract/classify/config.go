package classify

// AggregateLabel binds a label substring (e.g. "學業成績總平均") to the aggregate kind it
// announces (e.g. "average").
type AggregateLabel struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

type Config struct {
	// SectionMarkers are regular expressions, the capture groups of the first one that
	// matches (joined by "-") become the section key.
	SectionMarkers []string         `json:"section_markers"`
	Aggregates     []AggregateLabel `json:"aggregates"`
	// StatusKeywords are matched as substrings in order, list "不扣考" before "扣考".
	StatusKeywords []string `json:"status_keywords"`
	EntityCode     string   `json:"entity_code"`
	MaxCredit      int      `json:"max_credit"`
	// Sentinels are placeholder grade strings meaning "withdrawn" or "not applicable".
	Sentinels []string `json:"sentinels"`
	// NameHints are substrings that mark a short token as an entity name rather than a
	// person name.
	NameHints          []string `json:"name_hints"`
	PersonNameMaxRunes int      `json:"person_name_max_runes"`
}

const (
	AGGREGATE_AVERAGE           = "average"
	AGGREGATE_CREDITS_ATTEMPTED = "credits_attempted"
	AGGREGATE_CREDITS_EARNED    = "credits_earned"
	AGGREGATE_CONDUCT           = "conduct"
)

func DefaultConfig() Config {
	return Config{
		SectionMarkers: []string{`^(\d{3})\s*學年`},
		Aggregates: []AggregateLabel{
			{Kind: AGGREGATE_AVERAGE, Label: "學業成績總平均"},
			{Kind: AGGREGATE_CREDITS_ATTEMPTED, Label: "修習學分數"},
			{Kind: AGGREGATE_CREDITS_EARNED, Label: "實得學分數"},
			{Kind: AGGREGATE_CONDUCT, Label: "操行成績"},
		},
		StatusKeywords:     []string{"不扣考", "扣考", "曠課", "請假", "明細"},
		EntityCode:         `^[A-Z]{2,4}-\d{3}-\d{2}-[A-Z]\d$`,
		MaxCredit:          12,
		Sentinels:          []string{"---", "-", "停修", "不及格"},
		NameHints:          []string{"通識", ":", "古", "文", "英", "數", "資", "管"},
		PersonNameMaxRunes: 6,
	}
}
