package config

import (
	"errors"
	"fmt"
	"time"
)

// Supported auth types for the publish repository.
const (
	AuthTypeNone  = "none"
	AuthTypeSSH   = "ssh"
	AuthTypeToken = "token"
	AuthTypeBasic = "basic"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation in order of dependencies.
func (cv *configurationValidator) validate() error {
	if err := cv.validateContent(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	if err := cv.validatePublish(); err != nil {
		return err
	}
	return cv.validateDaemon()
}

func (cv *configurationValidator) validateContent() error {
	if cv.config.Content.Root == "" {
		return errors.New("content root cannot be empty")
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	if cv.config.Output.Directory == "" {
		return errors.New("output directory cannot be empty")
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	pub := cv.config.Publish
	if pub.URL == "" {
		// Publishing disabled; nothing else to check.
		return nil
	}
	if pub.Branch == "" {
		return errors.New("publish branch cannot be empty")
	}
	if pub.Auth == nil {
		return nil
	}
	switch pub.Auth.Type {
	case AuthTypeNone, AuthTypeSSH, AuthTypeToken, AuthTypeBasic, "":
	default:
		return fmt.Errorf("unsupported auth type: %s", pub.Auth.Type)
	}
	if pub.Auth.Type == AuthTypeToken && pub.Auth.Token == "" {
		return errors.New("token auth requires a token")
	}
	if pub.Auth.Type == AuthTypeBasic && (pub.Auth.Username == "" || pub.Auth.Password == "") {
		return errors.New("basic auth requires username and password")
	}
	return nil
}

func (cv *configurationValidator) validateDaemon() error {
	d := cv.config.Daemon
	if d.Debounce != "" {
		if dur, err := time.ParseDuration(d.Debounce); err != nil || dur <= 0 {
			return fmt.Errorf("daemon debounce must be a positive duration: %q", d.Debounce)
		}
	}
	if d.Interval != "" {
		if dur, err := time.ParseDuration(d.Interval); err != nil || dur <= 0 {
			return fmt.Errorf("daemon interval must be a positive duration: %q", d.Interval)
		}
	}
	if d.NATS.URL != "" && d.NATS.Subject == "" {
		return errors.New("nats subject cannot be empty when nats url is set")
	}
	return nil
}
