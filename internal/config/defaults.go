package config

// Defaults applied after unmarshaling and before validation.
const (
	DefaultContentRoot     = "./content"
	DefaultOutputDirectory = "./public"
	DefaultPublishBranch   = "gh-pages"
	DefaultPublishRemote   = "origin"
	DefaultCommitterName   = "blogpress"
	DefaultCommitterEmail  = "blogpress@localhost"
	DefaultListenAddr      = ":8080"
	DefaultDebounce        = "2s"
	DefaultNATSSubject     = "blogpress.publish"
	DefaultNotifySubject   = "blogpress.published"
)

// applyDefaults fills zero-valued fields so the rest of the code never
// re-checks for empty configuration.
func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Blog"
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}
	if cfg.Content.Root == "" {
		cfg.Content.Root = DefaultContentRoot
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = DefaultPublishBranch
	}
	if cfg.Publish.Remote == "" {
		cfg.Publish.Remote = DefaultPublishRemote
	}
	if cfg.Publish.CommitterName == "" {
		cfg.Publish.CommitterName = DefaultCommitterName
	}
	if cfg.Publish.CommitterEmail == "" {
		cfg.Publish.CommitterEmail = DefaultCommitterEmail
	}
	if cfg.Daemon.Listen == "" {
		cfg.Daemon.Listen = DefaultListenAddr
	}
	if cfg.Daemon.Debounce == "" {
		cfg.Daemon.Debounce = DefaultDebounce
	}
	if cfg.Daemon.NATS.Subject == "" {
		cfg.Daemon.NATS.Subject = DefaultNATSSubject
	}
	if cfg.Daemon.NATS.NotifySubject == "" {
		cfg.Daemon.NATS.NotifySubject = DefaultNotifySubject
	}
}
