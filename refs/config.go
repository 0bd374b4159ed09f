package refs

import (
	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/plumbing"
	"gopkg.in/ini.v1"
)

// Config is the minimal subset of ".git/config" this layer needs: whether
// the repository is bare, and remote URLs by remote name. The teacher
// shells out to a removed zeta/config package for this, so it is enriched
// here from the rest of the retrieved pack via gopkg.in/ini.v1 (spec §4.5
// SUPPLEMENT).
type Config struct {
	Bare    bool
	Remotes map[string]string
}

// ReadConfig parses "<gitDir>/config". A missing file yields an empty,
// non-bare Config rather than an error — most operations that need config
// tolerate its absence.
func ReadConfig(fs filesystem.FileSystem, gitDir string) (*Config, error) {
	cfg := &Config{Remotes: make(map[string]string)}

	p := fs.Join(gitDir, "config")
	if !fs.Exists(p) {
		return cfg, nil
	}
	h, err := fs.OpenRead(p)
	if err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	defer h.Close()

	file, err := ini.Load(h)
	if err != nil {
		return nil, &plumbing.MalformedRefError{Name: p, Reason: "invalid config syntax: " + err.Error()}
	}

	if core, err := file.GetSection("core"); err == nil {
		cfg.Bare = core.Key("bare").MustBool(false)
	}

	for _, section := range file.Sections() {
		// ini represents "[remote \"origin\"]" as section name
		// `remote "origin"`.
		name, ok := subsectionName(section.Name(), "remote")
		if !ok {
			continue
		}
		if url := section.Key("url").String(); url != "" {
			cfg.Remotes[name] = url
		}
	}

	return cfg, nil
}

// subsectionName splits an ini section header of the form
// `<prefix> "<name>"` and reports whether it matched prefix.
func subsectionName(section, prefix string) (string, bool) {
	const quote = '"'
	if len(section) < len(prefix)+3 || section[:len(prefix)] != prefix {
		return "", false
	}
	rest := section[len(prefix):]
	for len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	if len(rest) < 2 || rest[0] != quote || rest[len(rest)-1] != quote {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}
