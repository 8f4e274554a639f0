// Package export parses the reward history export returned by the
// Solscan reward endpoint. The payload is nominally CSV but the column
// names vary between exports and numeric cells are sometimes formatted
// for humans ("$1,234.50"), so the parser matches headers by substring
// and scrubs numbers before converting them.
package export

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrMalformedInput is returned when the export has fewer than two
// non-blank lines. Callers treat it as "no reward activity": header-only
// and empty exports are common for accounts that never earned a payout.
var ErrMalformedInput = errors.New("export: malformed input, need a header and at least one data row")

// Record is one reward payout row from an export
type Record struct {
	Epoch             uint32
	EffectiveSlot     uint64
	EffectiveTime     string
	EffectiveTimeUnix int64
	RewardAmount      float64
	PostBalance       uint64
	Commission        uint8
}

// Parser converts raw export text into typed records
type Parser struct {
	logger zerolog.Logger
}

// NewParser creates a new export parser
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{
		logger: logger.With().Str("component", "export_parser").Logger(),
	}
}

// columns holds the resolved header positions; -1 means not present
type columns struct {
	epoch      int
	slot       int
	time       int
	timeUnix   int
	reward     int
	post       int
	commission int
}

// Parse converts export text into records, preserving row order.
// A cell that cannot be parsed as a number yields zero rather than an
// error; a single corrupt row never aborts the whole parse.
func (p *Parser) Parse(raw string) ([]Record, error) {
	lines := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return nil, ErrMalformedInput
	}

	headers := splitRow(lines[0])
	cols, err := resolveColumns(headers)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitRow(line)

		// Unquoted thousands separators split a cell across fields; fold
		// the overflow back into the final column.
		if len(values) > len(headers) {
			values[len(headers)-1] = strings.Join(values[len(headers)-1:], ",")
			values = values[:len(headers)]
		}

		rec := Record{
			Epoch:         uint32(p.cellUint(values, cols.epoch, line)),
			EffectiveSlot: p.cellUint(values, cols.slot, line),
			EffectiveTime: cell(values, cols.time),
			RewardAmount:  p.cellFloat(values, cols.reward, line),
			PostBalance:   p.cellUint(values, cols.post, line),
			Commission:    uint8(p.cellUint(values, cols.commission, line)),
		}
		rec.EffectiveTimeUnix = int64(p.cellUint(values, cols.timeUnix, line))
		records = append(records, rec)
	}

	return records, nil
}

// resolveColumns locates the known columns by fuzzy substring match.
// Exports have been observed with varying header wording; only the epoch
// and reward amount columns are mandatory.
func resolveColumns(headers []string) (columns, error) {
	cols := columns{epoch: -1, slot: -1, time: -1, timeUnix: -1, reward: -1, post: -1, commission: -1}

	for i, header := range headers {
		h := strings.ToLower(header)
		switch {
		case strings.Contains(h, "epoch") && cols.epoch == -1:
			cols.epoch = i
		case strings.Contains(h, "slot") && cols.slot == -1:
			cols.slot = i
		case strings.Contains(h, "time") && strings.Contains(h, "unix") && cols.timeUnix == -1:
			cols.timeUnix = i
		case strings.Contains(h, "time") && cols.time == -1:
			cols.time = i
		case strings.Contains(h, "reward") && cols.reward == -1:
			cols.reward = i
		case strings.Contains(h, "balance") && cols.post == -1:
			cols.post = i
		case strings.Contains(h, "commission") && cols.commission == -1:
			cols.commission = i
		}
	}

	if cols.epoch == -1 || cols.reward == -1 {
		return cols, errors.New("export: could not locate epoch and reward amount columns in header")
	}
	return cols, nil
}

func splitRow(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func cell(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

func (p *Parser) cellFloat(values []string, idx int, line string) float64 {
	raw := cell(values, idx)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(scrubNumber(raw), 64)
	if err != nil {
		p.logger.Warn().Str("value", raw).Str("row", line).Msg("Unparseable numeric cell, using zero")
		return 0
	}
	return v
}

func (p *Parser) cellUint(values []string, idx int, line string) uint64 {
	v := p.cellFloat(values, idx, line)
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// scrubNumber strips currency symbols, thousands separators and other
// non-numeric characters, keeping digits, sign and decimal point.
func scrubNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
