package extractor

import (
	"strings"

	"github.com/colegioelo/vagas/internal/domain/models"
)

// minNumericFields is the number of integer cells a data row must carry after the
// class name.
const minNumericFields = 7

var (
	totalPrefixes = []string{"Total da série", "Total geral"}
	headerTokens  = map[string]struct{}{
		"Turma - Turno": {},
		"(A)":           {},
		"Vagas abertas": {},
		"Novatos":       {},
	}
)

type lineKind int

const (
	lineNoise lineKind = iota
	lineContextHeader
	lineTotal
	lineData
)

type parserState int

const (
	stateNoContext parserState = iota
	stateInContext
)

// Parser turns report lines into classroom records. Course headers are not repeated
// on every classroom row, so the active course is carried as parser state.
type Parser struct {
	periodMarker string
	exclusions   Exclusions
}

// NewParser builds a parser for the given academic period.
func NewParser(period string, exclusions Exclusions) *Parser {
	return &Parser{
		periodMarker: "/ " + strings.TrimSpace(period),
		exclusions:   exclusions,
	}
}

type machine struct {
	state  parserState
	course string
}

// ParseLines walks the lines in order and returns the accepted records.
func (p *Parser) ParseLines(lines []string) []models.ClassroomRecord {
	m := machine{state: stateNoContext}
	records := []models.ClassroomRecord{}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch p.classify(line, raw) {
		case lineContextHeader:
			m.state = stateInContext
			m.course = line
		case lineTotal, lineNoise:
			continue
		case lineData:
			if m.state != stateInContext {
				continue
			}
			record, ok := p.buildRecord(raw, m.course)
			if !ok || p.exclusions.Excludes(record) {
				continue
			}
			records = append(records, record)
		}
	}

	return records
}

// ParseText splits a rendered frame text into lines and parses it.
func (p *Parser) ParseText(text string) []models.ClassroomRecord {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return p.ParseLines(strings.Split(text, "\n"))
}

func (p *Parser) classify(line, raw string) lineKind {
	for _, prefix := range totalPrefixes {
		if strings.HasPrefix(line, prefix) {
			return lineTotal
		}
	}

	if strings.Contains(line, p.periodMarker) && !strings.HasPrefix(line, "Total") {
		return lineContextHeader
	}

	fields := strings.Split(raw, "\t")
	if len(fields) < 2 {
		return lineNoise
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return lineNoise
	}
	if _, header := headerTokens[name]; header {
		return lineNoise
	}

	return lineData
}

// buildRecord maps the numeric cells by position: capacity, new, returning,
// enrolled, remaining reported, pre-enrolled. The portal's own availability
// column is ignored since availability is derived.
func (p *Parser) buildRecord(raw, course string) (models.ClassroomRecord, bool) {
	fields := strings.Split(raw, "\t")
	name := strings.TrimSpace(fields[0])

	values := make([]int, 0, len(fields)-1)
	numeric := 0
	for _, cell := range fields[1:] {
		n, ok := parseCell(cell)
		if ok {
			numeric++
		}
		values = append(values, n)
	}

	if numeric < minNumericFields {
		return models.ClassroomRecord{}, false
	}

	record := models.ClassroomRecord{
		ClassName:                 name,
		Course:                    course,
		Segment:                   ClassifySegment(course),
		Capacity:                  values[0],
		NewEnrollees:              values[1],
		ReturningEnrollees:        values[2],
		EnrolledTotal:             values[3],
		RemainingCapacityReported: values[4],
		PreEnrolled:               values[5],
	}
	record.Available = record.Capacity - record.EnrolledTotal

	return record, true
}
