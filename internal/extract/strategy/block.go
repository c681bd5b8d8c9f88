package strategy

import (
	"fmt"
	"strings"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/textutil"
)

const (
	report_block_numeric_overflow = "block.numeric-overflow"
	report_block_person_overflow  = "block.person-overflow"
)

type BlockConfig struct {
	CodeField   string `json:"code_field"`
	NameField   string `json:"name_field"`
	PersonField string `json:"person_field"`
	StatusField string `json:"status_field"`
	// NumericFields are filled in order by numeric tokens.
	NumericFields []string `json:"numeric_fields"`
	Noise         []string `json:"noise"`
	MinFields     int      `json:"min_fields"`
}

// Block folds consecutive lines between markers into records. A new entity code or a second
// entity name starts a new record.
type Block struct {
	cfg        BlockConfig
	classifier classify.Classifier
	tel        telemetry.API
	noise      []string
}

func NewBlock(cfg BlockConfig, classifier classify.Classifier, tel telemetry.API) (Block, error) {
	assert.NotNil(tel)

	if cfg.CodeField == "" || cfg.NameField == "" {
		return Block{}, fmt.Errorf("block: code_field and name_field are required")
	}
	if cfg.MinFields < 2 {
		cfg.MinFields = 2
	}
	return Block{
		cfg:        cfg,
		classifier: classifier,
		tel:        telemetry.NewScopedAPI(BLOCK, tel),
		noise:      foldAll(cfg.Noise),
	}, nil
}

func (b Block) Name() string {
	return BLOCK
}

type blockState struct {
	current record.Record
	numeric int
	out     *Outcome
	minimum int
}

func (s *blockState) flush() {
	if len(s.current.Fields) == 0 {
		return
	}
	if s.current.NonEmpty() >= s.minimum {
		s.out.Records = append(s.out.Records, s.current)
	} else {
		s.out.skip()
	}
	section := s.current.Section
	s.current = record.Record{Section: section}
	s.numeric = 0
}

func (b Block) Extract(in Input) Outcome {
	out := Outcome{}
	tracker := in.tracker()
	state := &blockState{out: &out, minimum: b.cfg.MinFields}

	for _, line := range in.Content.TextLines() {
		if res := b.classifier.Classify(line); res.Category == classify.SECTION_MARKER {
			state.flush()
			tracker.Observe(res)
			state.current.Section = res.Key()
			continue
		}
		if textutil.ContainsAny(textutil.Fold(line), b.noise) {
			out.skip()
			continue
		}
		key, ok := tracker.Current()
		if !ok {
			out.skip()
			continue
		}
		state.current.Section = key
		b.handleLine(state, line)
	}
	state.flush()

	return out.finish(b.tel)
}

func (b Block) handleLine(state *blockState, line string) {
	tokens := strings.Fields(line)
	if len(tokens) > 1 && b.classifier.Is(classify.ENTITY_CODE, tokens[0]) {
		b.setCode(state, tokens[0])
		line = strings.Join(tokens[1:], " ")
		tokens = tokens[1:]
	}

	res := b.classifier.ClassifyIn(line, classify.Context{Assigned: assigned(state.current)})
	switch res.Category {
	case classify.ENTITY_CODE:
		b.setCode(state, line)
	case classify.ENTITY_NAME:
		b.setName(state, line)
	case classify.PERSON_NAME:
		// a course name always precedes its teacher, a person shaped line in an unnamed
		// record is the course name
		if state.current.Raw(b.cfg.NameField) == "" {
			b.setName(state, line)
			return
		}
		if b.cfg.PersonField == "" {
			return
		}
		if state.current.Raw(b.cfg.PersonField) != "" {
			state.out.anomaly(b.tel, report_block_person_overflow, line, []string{line})
			return
		}
		state.current.SetString(b.cfg.PersonField, line)
	case classify.STATUS_KEYWORD:
		// the whole line, "扣考 (缺課達1/3)" carries more than the keyword
		if b.cfg.StatusField != "" {
			state.current.Set(b.cfg.StatusField, record.String(textutil.CollapseSpace(line)))
		}
	case classify.NUMERIC_CREDIT, classify.GRADE_VALUE:
		b.addNumeric(state, line, []string{textutil.Fold(line)})
	default:
		var numbers []string
		for _, tok := range tokens {
			if folded := textutil.Fold(tok); classify.IsDigits(folded) {
				numbers = append(numbers, folded)
			}
		}
		if len(numbers) == 0 {
			state.out.skip()
			return
		}
		b.addNumeric(state, line, numbers)
	}
}

func (b Block) setCode(state *blockState, code string) {
	if state.current.Raw(b.cfg.CodeField) != "" {
		state.flush()
	}
	state.current.SetString(b.cfg.CodeField, textutil.Fold(code))
}

func (b Block) setName(state *blockState, name string) {
	if state.current.Raw(b.cfg.NameField) != "" {
		state.flush()
	}
	state.current.SetString(b.cfg.NameField, textutil.CleanEntityName(name))
}

func (b Block) addNumeric(state *blockState, line string, values []string) {
	for i, v := range values {
		if state.numeric >= len(b.cfg.NumericFields) {
			state.out.anomaly(b.tel, report_block_numeric_overflow, line, values[i:])
			return
		}
		state.current.SetString(b.cfg.NumericFields[state.numeric], v)
		state.numeric++
	}
}
