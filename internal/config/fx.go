package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	fx.Provide(
		Load,
		provideCompanyProfile,
	),
)

func provideCompanyProfile(cfg Config) (*CompanyProfileHolder, error) {
	return NewCompanyProfileHolder(cfg.Document.CompanyProfile)
}
