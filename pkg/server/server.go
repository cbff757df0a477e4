package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yurifrl/cnbean/pkg/beancount"
	"github.com/yurifrl/cnbean/pkg/classifier"
	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/parser"
	"github.com/yurifrl/cnbean/pkg/service"
)

//go:embed templates/*.html
var templates embed.FS

const (
	maxUploadSize = 32 << 20
	// maxLedgers bounds the rendered ledgers kept for download; the least
	// recently used one is evicted first.
	maxLedgers = 64
)

// Server exposes statement imports and rule classification over HTTP.
type Server struct {
	config    *config.Config
	logger    *log.Logger
	mux       *http.ServeMux
	template  *template.Template
	processor *service.Processor
	ledgers   *lru.Cache[string, []byte]
}

// New creates a new HTTP server
func New(cfg *config.Config, logger *log.Logger) *Server {
	return newServer(cfg, logger, maxLedgers)
}

func newServer(cfg *config.Config, logger *log.Logger, ledgers int) *Server {
	cache, err := lru.New[string, []byte](ledgers)
	if err != nil {
		panic(fmt.Sprintf("invalid ledger cache size %d: %v", ledgers, err))
	}
	s := &Server{
		config:    cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		template:  template.Must(template.ParseFS(templates, "templates/*.html")),
		processor: service.NewProcessor(cfg, logger),
		ledgers:   cache,
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/", s.withLogging(s.handleHome))
	s.mux.HandleFunc("/api/import", s.withLogging(s.handleImport))
	s.mux.HandleFunc("/api/classify", s.withLogging(s.handleClassify))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, r, http.StatusNotFound, "not found", nil)
		return
	}
	data := map[string]any{
		"Types": parser.FileTypes,
		"Rules": len(s.config.Rules),
		"Cards": s.config.Registry.Len(),
	}
	if err := s.template.ExecuteTemplate(w, "index.html", data); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to render page", err)
		return
	}
}

// Transaction is the JSON view of an imported transaction.
type Transaction struct {
	Date        string          `json:"date"`
	Flag        string          `json:"flag"`
	Payee       string          `json:"payee,omitempty"`
	Narration   string          `json:"narration"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Amount      string          `json:"amount"`
	Currency    string          `json:"currency"`
	Tags        []string        `json:"tags,omitempty"`
	Metadata    models.Metadata `json:"metadata,omitempty"`
	Review      bool            `json:"review"`
}

func newTransaction(tx *models.Transaction) Transaction {
	src := tx.Source()
	return Transaction{
		Date:        tx.Date.Format("2006-01-02"),
		Flag:        tx.Flag,
		Payee:       tx.Payee,
		Narration:   tx.Narration,
		Source:      src.Account,
		Destination: tx.Destination().Account,
		Amount:      beancount.Amount(*src.Amount),
		Currency:    src.Currency,
		Tags:        tx.Tags.Sorted(),
		Metadata:    tx.Metadata,
		Review:      tx.Tags.Has(models.TagConfirmationNeeded),
	}
}

// handleImport parses an uploaded statement and keeps the rendered ledger
// for download under /api/files/ until it is evicted.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return
	}

	var fileType parser.FileType
	if t := r.FormValue("type"); t != "" {
		if fileType, err = parser.ParseFileType(t); err != nil {
			s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	res := s.processor.ProcessBytes(data, header.Filename, fileType)
	if res.Err != nil {
		s.respondImportError(w, r, res.Err)
		return
	}

	name := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)) + ".beancount"
	ledger := beancount.Create(res.Transactions, nil)
	if s.ledgers.Add(name, ledger) {
		s.logger.Debug("evicted least recently used ledger", "kept", s.ledgers.Len())
	}

	txs := make([]Transaction, len(res.Transactions))
	review := 0
	for i, tx := range res.Transactions {
		txs[i] = newTransaction(tx)
		if txs[i].Review {
			review++
		}
	}
	s.logger.Info("statement imported", "file", header.Filename, "source", res.Statement.Source, "transactions", len(txs), "review", review)

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"file":         name,
		"source":       res.Statement.Source,
		"transactions": txs,
		"review":       review,
		"ledger":       string(ledger),
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// respondImportError reports the offending line when the failure is tied to
// one.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error) {
	var lineErr *importer.LineError
	if !errors.As(err, &lineErr) {
		s.respondError(w, r, http.StatusUnprocessableEntity, err.Error(), err)
		return
	}
	s.logger.Warn("request error", "status", http.StatusUnprocessableEntity, "err", err, "method", r.Method, "path", r.URL.Path)
	_ = s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"status": "error",
		"error":  err.Error(),
		"source": lineErr.Source,
		"line":   lineErr.Line,
		"row":    lineErr.Row,
	})
}

// ClassifyRequest is the body of /api/classify.
type ClassifyRequest struct {
	Narration string `json:"narration"`
	Payee     string `json:"payee"`
	Income    bool   `json:"income"`
	Source    string `json:"source"`
}

// ClassifyResponse reports the account the rules pick, or the fallback.
type ClassifyResponse struct {
	Account   string                `json:"account"`
	Fallback  bool                  `json:"fallback"`
	Tags      []string              `json:"tags,omitempty"`
	Metadata  models.Metadata       `json:"metadata,omitempty"`
	Conflicts []classifier.Conflict `json:"conflicts,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req ClassifyRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid json body", err)
			return
		}
	} else {
		req = ClassifyRequest{
			Narration: r.FormValue("narration"),
			Payee:     r.FormValue("payee"),
			Income:    r.FormValue("income") == "true",
			Source:    r.FormValue("source"),
		}
	}
	if req.Narration == "" && req.Payee == "" {
		s.respondError(w, r, http.StatusBadRequest, "narration or payee required", nil)
		return
	}

	res := s.processor.Importer().Classifier().Classify(req.Narration, req.Payee)
	resp := ClassifyResponse{
		Account:   res.Account,
		Tags:      res.Tags.Sorted(),
		Metadata:  res.Metadata,
		Conflicts: res.Conflicts,
	}
	if !res.Resolved() {
		fallback := classifier.Fallback{Expense: s.config.UnknownExpense, Income: s.config.UnknownIncome}
		resp.Account = fallback.Account(!req.Income, config.Context{Source: req.Source, Currency: s.config.DefaultCurrency})
		resp.Fallback = true
	}

	if err := s.writeJSON(w, http.StatusOK, resp); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleFiles serves the ledger of a previously imported statement.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	ledger, ok := s.ledgers.Get(filename)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(ledger); err != nil {
		s.logger.Warn("failed to write ledger response", "err", err)
	}
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log requests and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
