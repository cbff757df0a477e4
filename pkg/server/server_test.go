package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/cnbean/pkg/config"
)

const testConfig = `card_accounts:
  Liabilities:Card:
    CMB: ["1111"]
importers:
  wechat:
    account: Assets:WeChat
unknown_expense_account: Expenses:Unknown
unknown_income_account: Income:Unknown
detail_mappings:
  - name: jd
    narration_keywords: ["京东"]
    destination_account: Expenses:JD
`

const wechatBill = `微信支付账单明细,,,,,,,,,,
交易时间,交易类型,交易对方,商品,收/支,金额(元),支付方式,当前状态,交易单号,商户单号,备注
2024-01-05 12:30:00,商户消费,京东,京东支付-数码配件,支出,¥99.50,招商银行信用卡(1111),支付成功,T001,M001,/
2024-01-06 12:30:00,商户消费,某店,商品,支出,¥10.00,招商银行信用卡(1111),处理中,T002,M002,/
`

func testServerConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	cfg, err := config.Build(path, nil)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(testServerConfig(t), log.New(io.Discard))
}

func upload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("statement", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestImportAndDownload(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := upload(t, h, "bill.csv", wechatBill)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		File         string        `json:"file"`
		Source       string        `json:"source"`
		Review       int           `json:"review"`
		Transactions []Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bill.beancount", resp.File)
	assert.Equal(t, "wechat", resp.Source)
	assert.Equal(t, 1, resp.Review)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "Expenses:JD", resp.Transactions[0].Destination)
	assert.Equal(t, "Liabilities:Card:CMB:1111", resp.Transactions[0].Source)
	assert.Equal(t, "-99.50", resp.Transactions[0].Amount)
	assert.False(t, resp.Transactions[0].Review)
	assert.Equal(t, "Expenses:Unknown", resp.Transactions[1].Destination)
	assert.True(t, resp.Transactions[1].Review)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/bill.beancount", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `2024-01-05 * "京东" "京东支付-数码配件"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/missing.beancount", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportLineError(t *testing.T) {
	h := newTestServer(t).Handler()
	bill := strings.Replace(wechatBill, "招商银行信用卡(1111),支付成功", "招商银行信用卡(9999),支付成功", 1)

	rec := upload(t, h, "bill.csv", bill)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "wechat", resp["source"])
	assert.EqualValues(t, 3, resp["line"])
	assert.Contains(t, resp["error"], "9999")
}

func TestImportRejectsUnknownType(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := upload(t, h, "notes.txt", "hello")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/import", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClassify(t *testing.T) {
	h := newTestServer(t).Handler()

	classify := func(body string) ClassifyResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp ClassifyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	resp := classify(`{"narration": "京东支付-数码配件"}`)
	assert.Equal(t, "Expenses:JD", resp.Account)
	assert.False(t, resp.Fallback)

	resp = classify(`{"narration": "老王烧烤店", "income": true}`)
	assert.Equal(t, "Income:Unknown", resp.Account)
	assert.True(t, resp.Fallback)

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHome(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wechat_csv")
	assert.Contains(t, rec.Body.String(), "1 rule(s), 1 card(s) configured.")
}

func TestLedgerEviction(t *testing.T) {
	h := newServer(testServerConfig(t), log.New(io.Discard), 2).Handler()

	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		rec := upload(t, h, name, wechatBill)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	download := func(name string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/"+name, nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusNotFound, download("a.beancount"))
	assert.Equal(t, http.StatusOK, download("b.beancount"))
	assert.Equal(t, http.StatusOK, download("c.beancount"))
}
