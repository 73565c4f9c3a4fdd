package domain

// Config mirrors ~/.cloudenv/install.yaml. The file is optional and never
// written by the installer; it only narrows defaults.
type Config struct {
	ConfigFormatVersion string   `yaml:"config_format_version"`
	Artifact            Artifact `yaml:"artifact"`
	Install             Install  `yaml:"install"`
}

// Artifact overrides where the cloudenv artifact is fetched from.
type Artifact struct {
	URL string `yaml:"url"`
}

// Install overrides target resolution and prompting behavior.
type Install struct {
	Prefix         string `yaml:"prefix"`
	NonInteractive bool   `yaml:"non_interactive"`
	SkipConfirm    bool   `yaml:"skip_confirm"`
}
