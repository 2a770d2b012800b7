// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

const (
	BackendMemory = "memory"
	BackendValKey = "valkey"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	Auth    Auth    `yaml:"auth"`
	Session Session `yaml:"session"`
	ValKey  ValKey  `yaml:"valkey"`
	Refresh Refresh `yaml:"refresh"`
}

type Auth struct {
	Authority   string              `yaml:"authority" default:"https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize" validate:"required"`
	Tenant      string              `yaml:"tenant" default:"common"`
	ClientID    commoncfg.SourceRef `yaml:"clientID"`
	Scopes      []string            `yaml:"scopes" default:"[\"openid\",\"profile\",\"email\"]" validate:"min=1,dive,required"`
	RedirectURI string              `yaml:"redirectURI" default:"https://random.not.existing.url.local.somewhere" validate:"required,url"`
	// LegacyFixedState reproduces the constant state and nonce of earlier
	// releases. Only for providers registered against those values.
	LegacyFixedState bool `yaml:"legacyFixedState"`
}

type Session struct {
	// Backend selects the storage and messaging adapters: memory or valkey.
	Backend string `yaml:"backend" default:"memory"`
	// ShowToken prints the full token instead of a preview.
	ShowToken bool `yaml:"showToken"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix" default:"implicit-flow"`
	Channel  string              `yaml:"channel" default:"implicit-flow:messages"`

	// SecretRef of type mTLS enables client certificate authentication.
	SecretRef commoncfg.SecretRef `yaml:"secretRef"`
}

type Refresh struct {
	// Interval between silent refresh attempts of the serve command. Zero
	// disables periodic refresh.
	Interval time.Duration `yaml:"interval" default:"0s" validate:"gte=0"`
	// Wait bounds how long the login and refresh commands wait for the
	// session to change.
	Wait time.Duration `yaml:"wait" default:"2m" validate:"gt=0"`
}
