package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil", input: nil, expected: nil},
		{name: "empty", input: []string{}, expected: []string{}},
		{
			name:     "broker list from env with stray spaces",
			input:    []string{"kafka-1:9092", " kafka-2:9092", "kafka-1:9092 ", ""},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "case is preserved",
			input:    []string{"Kafka:9092", "kafka:9092"},
			expected: []string{"Kafka:9092", "kafka:9092"},
		},
		{
			name:     "only blanks",
			input:    []string{" ", "\t"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
