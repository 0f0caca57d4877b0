package record

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestNormalize_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		raw          Raw
		wantDesc     string
		wantLanguage string
	}{
		{
			name:         "null description and language",
			raw:          Raw{Name: "A", StargazersCount: 500},
			wantDesc:     DefaultDescription,
			wantLanguage: DefaultLanguage,
		},
		{
			name:         "empty description and language",
			raw:          Raw{Name: "A", Description: strPtr(""), Language: strPtr("")},
			wantDesc:     DefaultDescription,
			wantLanguage: DefaultLanguage,
		},
		{
			name:         "present values pass through",
			raw:          Raw{Name: "A", Description: strPtr("tool"), Language: strPtr("Go")},
			wantDesc:     "tool",
			wantLanguage: "Go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(tt.raw)
			if rec.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", rec.Description, tt.wantDesc)
			}
			if rec.Language != tt.wantLanguage {
				t.Errorf("Language = %q, want %q", rec.Language, tt.wantLanguage)
			}
		})
	}
}

func TestNormalize_FromJSON(t *testing.T) {
	body := `[{"name":"A","description":null,"html_url":"https://github.com/o/A","language":null,"stargazers_count":500,"created_at":"2020-01-02T03:04:05Z"},
	          {"name":"B","description":"big","html_url":"https://github.com/o/B","language":"Go","stargazers_count":2500,"created_at":"2021-06-07T08:09:10Z"}]`

	var raws []Raw
	if err := json.Unmarshal([]byte(body), &raws); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	records := NormalizeAll(raws)
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	want := Record{
		Name:             "A",
		Description:      "No description provided.",
		URL:              "https://github.com/o/A",
		Language:         "Unknown",
		StarCount:        500,
		StarCountDisplay: "500+",
		CreatedAt:        "2020-01-02T03:04:05Z",
	}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}

	if records[1].Name != "B" || records[1].StarCountDisplay != "2.5k+" {
		t.Errorf("records[1] = %+v, want B with 2.5k+", records[1])
	}
	if records[1].CreatedAt != "2021-06-07T08:09:10Z" {
		t.Errorf("CreatedAt = %q, want passthrough", records[1].CreatedAt)
	}
}

func TestRecord_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Normalize(Raw{Name: "A", StargazersCount: 1500}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"name", "description", "html_url", "language", "stargazers_count", "stargazers_count_formatted", "created_at"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
}
