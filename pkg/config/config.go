// Package config builds the immutable configuration snapshot shared by the
// parsers, the classifier and the importer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/yurifrl/cnbean/pkg/registry"
	"github.com/yurifrl/cnbean/pkg/rules"
)

var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DefaultCurrency is used by sources that do not print a currency.
const DefaultCurrency = "CNY"

// Config is built once by Build and never modified afterwards.
type Config struct {
	Path            string
	LogLevel        string
	DefaultCurrency string

	Rules        []rules.Rule
	RuleWarnings []string
	Registry     *registry.Registry

	UnknownExpense Value
	UnknownIncome  Value

	NarrationWhitelist []string
	NarrationBlacklist []string

	PDFPasswords []string

	Alipay AlipayConfig
	WeChat WeChatConfig
	HSBC   HSBCConfig
}

// AlipayConfig holds the accounts used by the Alipay adapter.
type AlipayConfig struct {
	Account                 string            `yaml:"account"`
	HuabeiAccount           string            `yaml:"huabei_account"`
	DouyinMonthlyAccount    string            `yaml:"douyin_monthly_payment_account"`
	YuEBaoAccount           string            `yaml:"yuebao_account"`
	RedPacketIncomeAccount  string            `yaml:"red_packet_income_account"`
	RedPacketExpenseAccount string            `yaml:"red_packet_expense_account"`
	CategoryMapping         map[string]string `yaml:"category_mapping"`
}

// WeChatConfig holds the accounts used by the WeChat Pay adapter.
type WeChatConfig struct {
	Account                    string `yaml:"account"`
	LingQianTongAccount        string `yaml:"lingqiantong_account"`
	RedPacketIncomeAccount     string `yaml:"red_packet_income_account"`
	RedPacketExpenseAccount    string `yaml:"red_packet_expense_account"`
	FamilyCardExpenseAccount   string `yaml:"family_card_expense_account"`
	GroupPaymentExpenseAccount string `yaml:"group_payment_expense_account"`
	GroupPaymentIncomeAccount  string `yaml:"group_payment_income_account"`
	TransferExpenseAccount     string `yaml:"transfer_expense_account"`
	TransferIncomeAccount      string `yaml:"transfer_income_account"`
}

// HSBCConfig maps HSBC HK export file prefixes to accounts.
type HSBCConfig struct {
	AccountMapping map[string]string `yaml:"account_mapping"`
	UseCNH         bool              `yaml:"use_cnh"`
}

// file is the on-disk layout. It is decoded with yaml.v3 rather than
// through viper so account paths and bank codes keep their case.
type file struct {
	Importers struct {
		Alipay    AlipayConfig `yaml:"alipay"`
		WeChat    WeChatConfig `yaml:"wechat"`
		HSBC      HSBCConfig   `yaml:"hsbc_hk"`
		Whitelist []string     `yaml:"card_narration_whitelist"`
		Blacklist []string     `yaml:"card_narration_blacklist"`
	} `yaml:"importers"`
	CardAccounts   registry.Table  `yaml:"card_accounts"`
	DetailMappings []rules.Mapping `yaml:"detail_mappings"`
	RuleFiles      []string        `yaml:"rule_files"`
}

// Build locates and reads the configuration. Scalar settings may be
// overridden by CNBEAN_* environment variables (also read from a .env file
// next to the config) and by the flags in fs.
func Build(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cnbean"))
		}
	}

	v.SetEnvPrefix("CNBEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_level", "info")
	v.SetDefault("default_currency", DefaultCurrency)

	if fs != nil {
		bindFlag(v, fs, "log_level", "log-level")
		bindFlag(v, fs, "extra_rule_files", "rules")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: no config.yaml found", ErrMissingConfig)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	path := v.ConfigFileUsed()
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	cfg, err := assemble(path, f, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func bindFlag(v *viper.Viper, fs *pflag.FlagSet, key, name string) {
	if flag := fs.Lookup(name); flag != nil {
		_ = v.BindPFlag(key, flag)
	}
}

// loadDotEnv reads KEY=value pairs without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func assemble(path string, f file, v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Path:               path,
		LogLevel:           v.GetString("log_level"),
		DefaultCurrency:    v.GetString("default_currency"),
		NarrationWhitelist: f.Importers.Whitelist,
		NarrationBlacklist: f.Importers.Blacklist,
		PDFPasswords:       v.GetStringSlice("pdf_passwords"),
		Alipay:             f.Importers.Alipay,
		WeChat:             f.Importers.WeChat,
		HSBC:               f.Importers.HSBC,
	}

	var err error
	if cfg.UnknownExpense, err = accountValue(v, "unknown_expense_account"); err != nil {
		return nil, err
	}
	if cfg.UnknownIncome, err = accountValue(v, "unknown_income_account"); err != nil {
		return nil, err
	}

	for _, kw := range append(append([]string{}, cfg.NarrationWhitelist...), cfg.NarrationBlacklist...) {
		if kw == "" {
			return nil, errors.New("empty card narration whitelist/blacklist keyword")
		}
	}

	if cfg.Registry, err = registry.New(f.CardAccounts); err != nil {
		return nil, err
	}

	if cfg.Rules, err = rules.FromMappings("detail_mappings", f.DetailMappings); err != nil {
		return nil, err
	}
	// rule_files are relative to the config file, --rules to the working
	// directory.
	ruleFiles := make([]string, 0, len(f.RuleFiles))
	for _, rf := range f.RuleFiles {
		if !filepath.IsAbs(rf) {
			rf = filepath.Join(filepath.Dir(path), rf)
		}
		ruleFiles = append(ruleFiles, rf)
	}
	ruleFiles = append(ruleFiles, v.GetStringSlice("extra_rule_files")...)
	for _, rf := range ruleFiles {
		loaded, err := rules.LoadFile(rf)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, loaded...)
	}
	if cfg.RuleWarnings, err = rules.Validate(cfg.Rules); err != nil {
		return nil, err
	}

	return cfg, nil
}

func accountValue(v *viper.Viper, key string) (Value, error) {
	raw := v.GetString(key)
	if raw == "" {
		return Value{}, fmt.Errorf("%s is required", key)
	}
	val, err := ParseValue(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", key, err)
	}
	if !val.IsComputed() && !rules.ValidAccount(raw) {
		return Value{}, fmt.Errorf("%s: malformed account %q", key, raw)
	}
	return val, nil
}
