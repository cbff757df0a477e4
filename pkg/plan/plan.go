// Package plan reads batch import plans: YAML lists of statement files with
// the adapter to read each one with.
package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Plan struct {
	// Output is the ledger file written by apply. Empty means stdout.
	Output     string      `yaml:"output"`
	Statements []Statement `yaml:"statements"`
}

type Statement struct {
	// Type is a parser file type such as "wechat_csv". Empty means detect.
	Type string `yaml:"type"`
	File string `yaml:"file"`
}

// Load reads a plan. Relative paths are resolved against the plan's
// directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}

	dir := filepath.Dir(path)
	for i, st := range p.Statements {
		if st.File == "" {
			return nil, fmt.Errorf("plan statement %d has no file", i+1)
		}
		p.Statements[i].File = resolve(dir, st.File)
	}
	if p.Output != "" {
		p.Output = resolve(dir, p.Output)
	}
	return &p, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (p *Plan) Print(w io.Writer) {
	output := p.Output
	if output == "" {
		output = "stdout"
	}
	fmt.Fprintf(w, "Output: %s\n", output)
	for i, st := range p.Statements {
		kind := st.Type
		if kind == "" {
			kind = "auto"
		}
		fmt.Fprintf(w, "[%d] type=%s file=%s\n", i+1, kind, st.File)
	}
}
