package app

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Text is a scalar match field. The API is loose with types: identifiers
// arrive as strings or numbers, and towns as postcodes. Numbers and booleans
// keep their JSON literal; objects and arrays read as empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

// Match is one fixture as sent by the league API. Pointer fields are nil
// when the key is absent or null. Field types are never checked here, so a
// mistyped fixture only matters once the team filter selects it.
type Match struct {
	ID          *Text `json:"idMatch"`
	LocalTeam   *Text `json:"nameLocalTeam"`
	VisitorTeam *Text `json:"nameVisitorTeam"`
	MatchDay    *Text `json:"matchDay"`
	Field       *Text `json:"nameField"`
	Town        *Text `json:"nameTown"`
}

// Round groups the matches of one matchday.
type Round struct {
	ID      string
	Matches []Match
}

// Schedule is the decoded league payload.
type Schedule struct {
	Rounds []Round
}

// MatchCount returns the total number of matches across all rounds.
func (s Schedule) MatchCount() int {
	n := 0
	for _, r := range s.Rounds {
		n += len(r.Matches)
	}
	return n
}

type envelope struct {
	MessageData *string `json:"messageData"`
}

// DecodePayload unwraps the upstream response: a JSON object whose
// messageData field holds the Base64 encoded schedule JSON.
func DecodePayload(body []byte) (Schedule, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Schedule{}, fmt.Errorf("%w: response body: %v", ErrDecode, err)
	}
	if env.MessageData == nil {
		return Schedule{}, fmt.Errorf("%w: messageData field missing", ErrDecode)
	}

	decoded, err := base64.StdEncoding.DecodeString(*env.MessageData)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: messageData base64: %v", ErrDecode, err)
	}
	if !utf8.Valid(decoded) {
		return Schedule{}, fmt.Errorf("%w: messageData is not valid UTF-8", ErrDecode)
	}

	return ParseSchedule(decoded)
}

// ParseSchedule parses the decoded schedule JSON.
func ParseSchedule(data []byte) (Schedule, error) {
	if !json.Valid(data) {
		return Schedule{}, fmt.Errorf("%w: schedule is not valid JSON", ErrDecode)
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return Schedule{}, fmt.Errorf("%w: schedule root: %v", ErrSchema, err)
	}

	rawRounds, ok := root["rounds"]
	if !ok || isNull(rawRounds) {
		return Schedule{}, fmt.Errorf("%w: rounds missing", ErrSchema)
	}
	rounds, err := decodeCollection(rawRounds)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: rounds: %v", ErrSchema, err)
	}

	var sched Schedule
	for _, kv := range rounds {
		round, err := parseRound(kv.key, kv.value)
		if err != nil {
			return Schedule{}, err
		}
		sched.Rounds = append(sched.Rounds, round)
	}
	return sched, nil
}

func parseRound(id string, raw json.RawMessage) (Round, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Round{}, fmt.Errorf("%w: round %s: %v", ErrSchema, id, err)
	}

	rawMatches, ok := fields["matches"]
	if !ok || isNull(rawMatches) {
		return Round{}, fmt.Errorf("%w: round %s: matches missing", ErrSchema, id)
	}
	matches, err := decodeCollection(rawMatches)
	if err != nil {
		return Round{}, fmt.Errorf("%w: round %s: matches: %v", ErrSchema, id, err)
	}

	round := Round{ID: id, Matches: make([]Match, 0, len(matches))}
	for _, kv := range matches {
		var m Match
		if err := json.Unmarshal(kv.value, &m); err != nil {
			return Round{}, fmt.Errorf("%w: round %s: match %s: %v", ErrSchema, id, kv.key, err)
		}
		round.Matches = append(round.Matches, m)
	}
	return round, nil
}

type keyed struct {
	key   string
	value json.RawMessage
}

// decodeCollection accepts a JSON object keyed by identifier or, as PHP
// backends emit for sequential keys, a JSON array. Object keys are returned
// sorted.
func decodeCollection(raw json.RawMessage) ([]keyed, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, err
		}
		out := make([]keyed, 0, len(m))
		for k, v := range m {
			out = append(out, keyed{key: k, value: v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
		return out, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]keyed, 0, len(items))
		for i, v := range items {
			out = append(out, keyed{key: strconv.Itoa(i), value: v})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %s", trimmed[:1])
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
