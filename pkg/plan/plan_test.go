package plan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	content := `output: ledger/2024-01.bean
statements:
  - type: wechat_csv
    file: wechat.csv
  - file: /abs/alipay.csv
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(p.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(p.Statements))
	}
	if want := filepath.Join(dir, "wechat.csv"); p.Statements[0].File != want {
		t.Errorf("expected %s, got %s", want, p.Statements[0].File)
	}
	if p.Statements[0].Type != "wechat_csv" {
		t.Errorf("unexpected type %q", p.Statements[0].Type)
	}
	if p.Statements[1].File != "/abs/alipay.csv" {
		t.Errorf("absolute path changed: %s", p.Statements[1].File)
	}
	if want := filepath.Join(dir, "ledger", "2024-01.bean"); p.Output != want {
		t.Errorf("expected output %s, got %s", want, p.Output)
	}

	var buf bytes.Buffer
	p.Print(&buf)
	if !bytes.Contains(buf.Bytes(), []byte("[2] type=auto file=/abs/alipay.csv")) {
		t.Errorf("unexpected plan output:\n%s", buf.String())
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"empty.yaml":  "statements: []\n",
		"nofile.yaml": "statements:\n  - type: cmb_pdf\n",
		"broken.yaml": "statements: [\n",
	}
	for name, content := range tests {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write plan: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
