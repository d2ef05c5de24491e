package pattern

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single object", `{"id":"p1","title":"Signals"}`, []string{"Signals"}, false},
		{"array", ` [{"title":"A"},{"title":"B"}]`, []string{"A", "B"}, false},
		{"empty array", `[]`, nil, false},
		{"garbage", `{"title":`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d patterns, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.Title != tt.want[i] {
					t.Errorf("pattern %d title = %q, want %q", i, p.Title, tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.json")
	body := `{"title":"Brakes","totalDurationMinutes":20,"sections":[{"name":"Air brake","questionCount":5}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	ps, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].TotalDurationMinutes != 20 || ps[0].Sections[0].QuestionCount != 5 {
		t.Errorf("unexpected pattern %+v", ps)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
