package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CompanyProfile is the issuer identity printed on every business document.
type CompanyProfile struct {
	Name          string `mapstructure:"name"`
	Activity      string `mapstructure:"activity"`
	Address       string `mapstructure:"address"`
	Phone         string `mapstructure:"phone"`
	Email         string `mapstructure:"email"`
	Website       string `mapstructure:"website"`
	RegistryNo    string `mapstructure:"registryNo"`
	TaxID         string `mapstructure:"taxId"`
	StatisticalID string `mapstructure:"statisticalId"`
	ArticleNo     string `mapstructure:"articleNo"`
	BankAccount   string `mapstructure:"bankAccount"`
	Footer        string `mapstructure:"footer"`
	CurrencyCode  string `mapstructure:"currencyCode"`
	CurrencyUnit  string `mapstructure:"currencyUnit"`
	CurrencySub   string `mapstructure:"currencySubunit"`
}

func DefaultCompanyProfile() CompanyProfile {
	return CompanyProfile{
		Name:         "Fiberdesk SARL",
		Activity:     "Installation et maintenance de réseaux fibre optique",
		Footer:       "Fiberdesk SARL - Réseaux fibre optique FTTH / FTTB",
		CurrencyCode: "DA",
		CurrencyUnit: "dinars",
		CurrencySub:  "centimes",
	}
}

type CompanyProfileHolder struct {
	current atomic.Value // holds CompanyProfile
}

// NewCompanyProfileHolder loads company.yml (or the explicit path) and keeps
// it reloaded on change. A missing file falls back to defaults.
func NewCompanyProfileHolder(path string) (*CompanyProfileHolder, error) {
	v := viper.New()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("company")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/fiberdesk")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FIBERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	profile := DefaultCompanyProfile()
	if found {
		var err error
		if profile, err = readCompanyProfile(v); err != nil {
			return nil, err
		}
	}

	holder := &CompanyProfileHolder{}
	holder.current.Store(profile)

	if found {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := readCompanyProfile(v)
			if err != nil {
				log.Printf("[company-profile] invalid profile ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[company-profile] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewStaticCompanyProfileHolder wraps a fixed profile; used by tests and the CLI.
func NewStaticCompanyProfileHolder(profile CompanyProfile) *CompanyProfileHolder {
	holder := &CompanyProfileHolder{}
	holder.current.Store(profile)
	return holder
}

func (h *CompanyProfileHolder) Get() CompanyProfile {
	return h.current.Load().(CompanyProfile)
}

// readCompanyProfile unmarshals the "company" key and fills currency and
// footer fields the file leaves empty.
func readCompanyProfile(v *viper.Viper) (CompanyProfile, error) {
	var profile CompanyProfile
	if err := v.UnmarshalKey("company", &profile); err != nil {
		return CompanyProfile{}, err
	}

	defaults := DefaultCompanyProfile()
	if strings.TrimSpace(profile.CurrencyCode) == "" {
		profile.CurrencyCode = defaults.CurrencyCode
	}
	if strings.TrimSpace(profile.CurrencyUnit) == "" {
		profile.CurrencyUnit = defaults.CurrencyUnit
	}
	if strings.TrimSpace(profile.CurrencySub) == "" {
		profile.CurrencySub = defaults.CurrencySub
	}
	if strings.TrimSpace(profile.Footer) == "" {
		profile.Footer = strings.TrimSpace(profile.Name)
	}

	if err := validateCompanyProfile(profile); err != nil {
		return CompanyProfile{}, err
	}
	return profile, nil
}

func validateCompanyProfile(p CompanyProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("company.name cannot be empty")
	}
	if strings.TrimSpace(p.CurrencyUnit) == "" {
		return errors.New("company.currencyUnit cannot be empty")
	}
	return nil
}
