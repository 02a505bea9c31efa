package main

import "testing"

func TestCheckAndParseInitLine(t *testing.T) {
	tests := []struct {
		line          string
		isInitLine    bool
		createSession bool
		id            int
	}{
		{"init", true, true, 0},
		{"init 4", true, false, 4},
		{"init x", false, false, 0},
		{"hello", false, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			isInitLine, createSession, id := checkAndParseInitLine(tt.line)
			if isInitLine != tt.isInitLine || createSession != tt.createSession || id != tt.id {
				t.Errorf("checkAndParseInitLine(%q) = %v %v %v, want %v %v %v",
					tt.line, isInitLine, createSession, id, tt.isInitLine, tt.createSession, tt.id)
			}
		})
	}
}
