package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"React", "React"},
		{"react", "React"},
		{" DevOps \n", "DevOps"},
		{"\"Architecture\"", "Architecture"},
		{"NESTJS", "NestJS"},
		{"Cooking", "General"},
		{"", "General"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeCategory(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNewOpenAIEngineRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEngine(&Config{})
	assert.Error(t, err)

	_, err = NewOpenAIEngine(nil)
	assert.Error(t, err)
}
