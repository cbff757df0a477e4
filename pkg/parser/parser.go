// Package parser reads statement exports from Chinese payment apps and banks
// and normalizes every line into a models.Record. Classification happens
// later, in the importer.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
)

type FileType string

const (
	WeChatCSV FileType = "wechat_csv"
	AlipayCSV FileType = "alipay_csv"
	CCBCSV    FileType = "ccb_csv"
	CCBXLS    FileType = "ccb_xls"
	HSBCCSV   FileType = "hsbc_hk_csv"
	CMBPDF    FileType = "cmb_pdf"
)

// Source names recorded on statements and transactions.
const (
	SourceWeChat = "wechat"
	SourceAlipay = "alipay"
	SourceCCB    = "ccb"
	SourceHSBC   = "hsbc_hk"
	SourceCMB    = "cmb"
)

// FileTypes lists every supported type, in detection order.
var FileTypes = []FileType{WeChatCSV, AlipayCSV, CCBCSV, CCBXLS, HSBCCSV, CMBPDF}

// ParseFileType validates a type name given by the user or a plan file.
func ParseFileType(s string) (FileType, error) {
	for _, ft := range FileTypes {
		if string(ft) == s {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown file type %q", s)
}

type Parser struct {
	cfg       *config.Config
	direction *importer.DirectionResolver
	logger    *log.Logger
}

func New(cfg *config.Config, logger *log.Logger) *Parser {
	return &Parser{
		cfg:       cfg,
		direction: importer.NewDirectionResolver(logger, importer.DefaultHeuristics()...),
		logger:    logger,
	}
}

// ProcessBytes detects the statement type of data and parses it.
func (p *Parser) ProcessBytes(data []byte, filename string) (*models.Statement, error) {
	fileType, err := p.Detect(data, filename)
	if err != nil {
		return nil, err
	}
	return p.Process(data, filename, fileType)
}

// Process parses data as the given statement type.
func (p *Parser) Process(data []byte, filename string, fileType FileType) (*models.Statement, error) {
	p.logger.Debug("parsing statement", "type", fileType, "filename", filename)

	switch fileType {
	case WeChatCSV:
		return p.ParseWeChatCSV(data, filename)
	case AlipayCSV:
		return p.ParseAlipayCSV(data, filename)
	case CCBCSV:
		return p.ParseCCBCSV(data, filename)
	case CCBXLS:
		return p.ParseCCBXLS(data, filename)
	case HSBCCSV:
		return p.ParseHSBCCSV(data, filename)
	case CMBPDF:
		return p.ParseCMBPDF(data, filename)
	default:
		return nil, fmt.Errorf("unknown file type %q", fileType)
	}
}

// Detect picks the statement type from the file extension and, for CSV
// exports, the keywords each source prints in its header.
func (p *Parser) Detect(data []byte, filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return CMBPDF, nil
	case ".xls":
		return CCBXLS, nil
	case ".csv":
		text, err := decodeText(data)
		if err != nil {
			return "", err
		}
		if fileType := detectCSV(text); fileType != "" {
			return fileType, nil
		}
	}
	p.logger.Debug("unknown file type", "filename", filename)
	return "", fmt.Errorf("unknown file type: %s", filename)
}

func detectCSV(text string) FileType {
	containsAll := func(keywords ...string) bool {
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				return false
			}
		}
		return true
	}

	switch {
	case containsAll("微信支付账单明细"):
		return WeChatCSV
	case containsAll("支付宝", "电子客户回单"):
		return AlipayCSV
	case containsAll("中国建设银行", "交易明细"):
		return CCBCSV
	case containsAll("Billing currency", "Description"):
		return HSBCCSV
	default:
		return ""
	}
}

// required returns account, or a malformed-line error naming the missing
// configuration key.
func required(source string, line int, raw []string, key, account string) (string, error) {
	if account == "" {
		return "", importer.Malformed(source, line, raw, "importers.%s.%s is not configured", source, key)
	}
	return account, nil
}
