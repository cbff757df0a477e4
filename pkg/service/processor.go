// Package service drives batch imports: it reads statement files, parses
// them and builds their transactions, one file at a time. A failing file is
// reported in its Result and never stops the batch.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/parser"
	"github.com/yurifrl/cnbean/pkg/plan"
)

var supportedExtensions = []string{".csv", ".xls", ".pdf"}

// Result is the outcome of importing one statement file.
type Result struct {
	File         string
	Statement    *models.Statement
	Transactions []*models.Transaction
	Err          error
}

type Processor struct {
	parser   *parser.Parser
	importer *importer.Importer
	logger   *log.Logger
}

func NewProcessor(cfg *config.Config, logger *log.Logger) *Processor {
	return &Processor{
		parser:   parser.New(cfg, logger),
		importer: importer.New(cfg, logger),
		logger:   logger,
	}
}

// Importer returns the importer shared by every file of the batch.
func (p *Processor) Importer() *importer.Importer {
	return p.importer
}

// ProcessPath imports a file, every supported file of a directory, or every
// match of a glob pattern.
func (p *Processor) ProcessPath(path string) ([]Result, error) {
	matches, err := filepath.Glob(path)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files found matching pattern %s", path)
	}

	var results []Result
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			p.logger.Warn("failed to stat file", "error", err, "file", match)
			results = append(results, Result{File: match, Err: err})
			continue
		}
		if !info.IsDir() {
			results = append(results, p.ProcessFile(match, ""))
			continue
		}

		dirResults, err := p.ProcessDirectory(match)
		if err != nil {
			p.logger.Warn("failed to process directory", "error", err, "dir", match)
			results = append(results, Result{File: match, Err: err})
			continue
		}
		results = append(results, dirResults...)
	}
	return results, nil
}

// ProcessDirectory imports every supported file directly inside dir.
func (p *Processor) ProcessDirectory(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() || !supported(entry.Name()) {
			continue
		}
		results = append(results, p.ProcessFile(filepath.Join(dir, entry.Name()), ""))
	}
	return results, nil
}

// ProcessPlan imports the statements of a plan in order.
func (p *Processor) ProcessPlan(pl *plan.Plan) []Result {
	results := make([]Result, 0, len(pl.Statements))
	for _, st := range pl.Statements {
		fileType := parser.FileType("")
		if st.Type != "" {
			ft, err := parser.ParseFileType(st.Type)
			if err != nil {
				p.logger.Error("failed to process file", "file", st.File, "error", err)
				results = append(results, Result{File: st.File, Err: err})
				continue
			}
			fileType = ft
		}
		results = append(results, p.ProcessFile(st.File, fileType))
	}
	return results
}

// ProcessFile imports one file. An empty fileType is detected.
func (p *Processor) ProcessFile(path string, fileType parser.FileType) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read file: %w", err)
		p.logger.Error("failed to process file", "file", path, "error", err)
		return Result{File: path, Err: err}
	}
	return p.ProcessBytes(data, path, fileType)
}

// ProcessBytes imports statement contents read elsewhere, such as an upload.
// The base name of path drives type detection.
func (p *Processor) ProcessBytes(data []byte, path string, fileType parser.FileType) Result {
	res := Result{File: path}
	res.Statement, res.Transactions, res.Err = p.process(data, filepath.Base(path), fileType)
	if res.Err != nil {
		p.logger.Error("failed to process file", "file", path, "error", res.Err)
		return res
	}
	p.logger.Info("processed file successfully", "file", path, "source", res.Statement.Source, "transactions", len(res.Transactions))
	return res
}

func (p *Processor) process(data []byte, name string, fileType parser.FileType) (*models.Statement, []*models.Transaction, error) {
	var err error
	if fileType == "" {
		fileType, err = p.parser.Detect(data, name)
		if err != nil {
			return nil, nil, err
		}
	}
	p.logger.Info("processing file", "name", name, "type", fileType)

	st, err := p.parser.Process(data, name, fileType)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing file: %w", err)
	}

	txs, err := p.importer.ImportStatement(st)
	if err != nil {
		return st, nil, err
	}
	return st, txs, nil
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
