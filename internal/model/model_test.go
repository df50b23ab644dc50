package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOccurrenceRecord(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	span := Occurrence{UID: "a", Summary: "Standup", Start: start, End: start.Add(15 * time.Minute)}.Record()
	assert.Equal(t, "Standup", span["summary"])
	assert.Equal(t, start.Add(15*time.Minute), span["end"])

	instant := Occurrence{UID: "b", Summary: "Deadline", Start: start, End: start}.Record()
	_, ok := instant.Get("end")
	assert.False(t, ok)
	v, ok := instant.Get("start")
	assert.True(t, ok)
	assert.Equal(t, start, v)
}

func TestDecodeYAMLKeepsTimestampsAsText(t *testing.T) {
	var got []map[string]any
	err := DecodeYAML([]byte(`
- name: Apollo 11
  launched: 1969-07-16
  landed: 1969-07-20 20:17:40
  quoted: "1969-07-24"
  year: 1969
`), &got)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, []map[string]any{{
		"name":     "Apollo 11",
		"launched": "1969-07-16",
		"landed":   "1969-07-20 20:17:40",
		"quoted":   "1969-07-24",
		"year":     1969,
	}}, got)
}

func TestDecodeYAMLEmptyDocument(t *testing.T) {
	var got []map[string]any
	assert.NoError(t, DecodeYAML(nil, &got))
	assert.Nil(t, got)

	assert.Error(t, DecodeYAML([]byte("- [unclosed"), &got))
}
