package config

import (
	"errors"
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/openkcm/implicit-flow/internal/serviceerr"
)

// ValKeyOptions holds the resolved connection settings of a ValKey server.
type ValKeyOptions struct {
	Address  string
	User     string
	Password string
}

func MakeValKeyOptions(conf ValKey) (ValKeyOptions, error) {
	host, err := commoncfg.LoadValueFromSourceRef(conf.Host)
	if err != nil {
		return ValKeyOptions{}, fmt.Errorf("loading valkey host: %w", err)
	}

	if len(host) == 0 {
		return ValKeyOptions{}, errors.Join(serviceerr.ErrInvalidConfig, errors.New("valkey host is empty"))
	}

	user, err := loadOptional(conf.User)
	if err != nil {
		return ValKeyOptions{}, fmt.Errorf("loading valkey user: %w", err)
	}

	password, err := loadOptional(conf.Password)
	if err != nil {
		return ValKeyOptions{}, fmt.Errorf("loading valkey password: %w", err)
	}

	return ValKeyOptions{
		Address:  string(host),
		User:     user,
		Password: password,
	}, nil
}

// ClientID resolves the OAuth client identifier.
func ClientID(conf Auth) (string, error) {
	id, err := commoncfg.LoadValueFromSourceRef(conf.ClientID)
	if err != nil {
		return "", fmt.Errorf("loading client id: %w", err)
	}

	if len(id) == 0 {
		return "", errors.Join(serviceerr.ErrInvalidConfig, errors.New("client id is empty"))
	}

	return string(id), nil
}

func loadOptional(ref commoncfg.SourceRef) (string, error) {
	if ref.Source == "" {
		return "", nil
	}

	value, err := commoncfg.LoadValueFromSourceRef(ref)
	if err != nil {
		return "", err
	}

	return string(value), nil
}
