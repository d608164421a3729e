package confidence

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		resultCount int
		topScore    float64
		want        Level
	}{
		{"no results", 0, 0.0, Low},
		{"no results high score ignored", 0, 0.99, Low},
		{"many results strong match", 3, 0.85, High},
		{"many results at boundary", 3, 0.7, Medium},
		{"many results weak match", 5, 0.4, Medium},
		{"single strong match", 1, 0.9, Medium},
		{"two results strong match", 2, 0.95, Medium},
		{"just above boundary", 3, 0.701, High},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.resultCount, tt.topScore)
			if got != tt.want {
				t.Errorf("Score(%d, %v) = %q, want %q", tt.resultCount, tt.topScore, got, tt.want)
			}
		})
	}
}
