package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/boardsync/internal/domain/model"
)

var (
	errNotObject = errors.New("record is not a JSON object")
	errBadRank   = errors.New("rank is not a whole number in range")
)

// rawRecord is the upstream row. Numeric fields arrive as numbers or as
// numeric strings depending on the contest.
type rawRecord struct {
	Rank      flexNumber `json:"rank"`
	Hacker    flexString `json:"hacker"`
	Score     flexNumber `json:"score"`
	TimeTaken flexNumber `json:"time_taken"`
	Country   flexString `json:"country"`
	School    flexString `json:"school"`
	Avatar    flexString `json:"avatar"`
}

func decodeRecord(raw json.RawMessage) (model.ParticipantRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.ParticipantRecord{}, errNotObject
	}

	var r rawRecord
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return model.ParticipantRecord{}, err
	}
	if r.Rank.valid && !isWholeInt(r.Rank.value) {
		return model.ParticipantRecord{}, fmt.Errorf("%w: %v", errBadRank, r.Rank.value)
	}

	return model.ParticipantRecord{
		Rank:      int(r.Rank.value),
		HasRank:   r.Rank.valid,
		Hacker:    r.Hacker.value,
		Score:     r.Score.value,
		TimeTaken: r.TimeTaken.value,
		Country:   r.Country.value,
		School:    r.School.value,
		Avatar:    r.Avatar.value,
	}, nil
}

// isWholeInt reports whether v converts to int without truncation or overflow.
func isWholeInt(v float64) bool {
	return v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64
}

// flexNumber accepts a JSON number, a numeric string, "" or null.
type flexNumber struct {
	value float64
	valid bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	text := string(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("not a number: %s", string(b))
	}
	n.value, n.valid = v, true
	return nil
}

// flexString accepts a JSON string, a number or null.
type flexString struct {
	value string
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		return json.Unmarshal(b, &s.value)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		s.value = string(b)
		return nil
	default:
		return fmt.Errorf("not a string: %s", string(b))
	}
}
