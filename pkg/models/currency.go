package models

// currencyCodes maps the Chinese currency names printed on statements to
// ISO 4217 codes.
var currencyCodes = map[string]string{
	"人民币":   "CNY",
	"港币":    "HKD",
	"澳门元":   "MOP",
	"美元":    "USD",
	"日元":    "JPY",
	"韩元":    "KRW",
	"欧元":    "EUR",
	"英镑":    "GBP",
	"加拿大元":  "CAD",
	"澳大利亚元": "AUD",
}

// CurrencyCode returns the ISO code for a Chinese currency name.
func CurrencyCode(name string) (string, bool) {
	code, ok := currencyCodes[name]
	return code, ok
}
