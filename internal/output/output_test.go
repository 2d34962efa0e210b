package output

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sample struct {
	Flow    string   `yaml:"flow"              json:"flow"`
	Success bool     `yaml:"success"           json:"success"`
	Failed  []string `yaml:"failed,omitempty"  json:"failed,omitempty"`
	Note    string   `yaml:"note,omitempty"    json:"note,omitempty"`
}

func TestFprintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, FormatYAML, sample{Flow: "login", Failed: []string{"B"}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if bytes.Count(buf.Bytes(), []byte("\n")) <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", out)
	}
	var decoded sample
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Flow != "login" || len(decoded.Failed) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
	if strings.Contains(out, "note") {
		t.Error("empty note should be omitted")
	}
}

func TestFprintJSON(t *testing.T) {
	tests := []struct {
		name      string
		pretty    bool
		multiline bool
	}{
		{"compact", false, false},
		{"pretty", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PrettyOutput = tt.pretty
			defer func() { PrettyOutput = false }()

			var buf bytes.Buffer
			if err := Fprint(&buf, FormatJSON, sample{Flow: "a<b>", Success: true}); err != nil {
				t.Fatal(err)
			}
			lines := bytes.Count(buf.Bytes(), []byte("\n"))
			if tt.multiline != (lines > 1) {
				t.Errorf("pretty=%v produced %d lines:\n%s", tt.pretty, lines, buf.String())
			}
			if !strings.Contains(buf.String(), "a<b>") {
				t.Errorf("HTML should not be escaped: %s", buf.String())
			}
			var decoded sample
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
		})
	}
}

func TestPrintUsesCurrentFormat(t *testing.T) {
	OutputFormat = FormatJSON
	defer func() { OutputFormat = FormatYAML }()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := Print(sample{Flow: "x"})
	w.Close()
	os.Stdout = old
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON, got %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if err := Fprint(&bytes.Buffer{}, Format("xml"), 1); err == nil {
		t.Error("expected error for unknown format")
	}
}
