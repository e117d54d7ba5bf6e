package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value      string
		production bool
		want       zerolog.Level
		known      bool
	}{
		{"debug", false, zerolog.DebugLevel, true},
		{"WARNING", false, zerolog.WarnLevel, true},
		{" error ", true, zerolog.ErrorLevel, true},
		{"disabled", false, zerolog.Disabled, true},
		{"", false, zerolog.InfoLevel, true},
		{"", true, zerolog.WarnLevel, true},
		{"verbose", true, zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		level, known := parseLogLevel(tt.value, tt.production)
		assert.Equal(t, tt.want, level, "LOGLEVEL=%q production=%v", tt.value, tt.production)
		assert.Equal(t, tt.known, known, "LOGLEVEL=%q", tt.value)
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["report"])
	assert.True(t, names["cards"])
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dry-run"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("layout"))
}
