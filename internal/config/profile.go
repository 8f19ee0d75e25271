package config

// ShareProfile holds per-share settings loaded from the profile file.
// Profiles let users keep passwords and output paths for the shares they
// crawl regularly out of their shell history.
type ShareProfile struct {
	// Base is the share server's base URL.
	Base string `yaml:"base,omitempty"`

	// Password is the share password for protected links.
	Password string `yaml:"password,omitempty"`

	// Output is the snapshot output file for this share.
	Output string `yaml:"output,omitempty"`

	// Concurrency overrides the global concurrency for this share.
	// If zero, the global setting is used.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// File represents the structure of the .davsnap profile file.
type File struct {
	// Shares maps share tokens to their per-share settings.
	Shares map[string]ShareProfile `yaml:"shares,omitempty"`

	// Defaults contains settings applied to every share unless
	// overridden in the share-specific profile.
	Defaults ShareProfile `yaml:"defaults,omitempty"`
}

// GetShareProfile returns the profile for a share token, merging the
// share-specific settings over the defaults.
func (f *File) GetShareProfile(token string) ShareProfile {
	result := f.Defaults

	if p, ok := f.Shares[token]; ok {
		if p.Base != "" {
			result.Base = p.Base
		}
		if p.Password != "" {
			result.Password = p.Password
		}
		if p.Output != "" {
			result.Output = p.Output
		}
		if p.Concurrency > 0 {
			result.Concurrency = p.Concurrency
		}
	}

	return result
}
