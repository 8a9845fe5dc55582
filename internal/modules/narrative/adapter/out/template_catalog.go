package out

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"scrollkitty/internal/modules/narrative/domain"
	"scrollkitty/internal/platform/healthband"
)

const interceptFile = "templates/intercept.yaml"

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

type templateFile struct {
	Trigger string                     `yaml:"trigger"`
	Pools   map[string][]templateEntry `yaml:"pools"`
}

type templateEntry struct {
	ID    string `yaml:"id"`
	Text  string `yaml:"text"`
	Emoji string `yaml:"emoji"`
	Limit string `yaml:"limit"`
}

type interceptStrings struct {
	Redirect map[string][]string `yaml:"redirect"`
	Pain     map[string][]string `yaml:"pain"`
}

// LoadEmbeddedCatalog loads the catalog compiled into the binary.
func LoadEmbeddedCatalog() (domain.Catalog, error) {
	return LoadCatalog(embeddedTemplates)
}

// LoadCatalog reads templates/*.yaml from catalogFS and validates the result.
// Each trigger file must be named after its trigger.
func LoadCatalog(catalogFS fs.FS) (domain.Catalog, error) {
	paths, err := fs.Glob(catalogFS, "templates/*.yaml")
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("glob templates: %w", err)
	}
	if len(paths) == 0 {
		return domain.Catalog{}, fmt.Errorf("no template files found")
	}
	sort.Strings(paths)

	catalog := domain.NewCatalog()
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read %s: %w", p, err)
		}
		if p == interceptFile {
			if err := addIntercept(catalog, data); err != nil {
				return domain.Catalog{}, fmt.Errorf("parse %s: %w", p, err)
			}
			continue
		}
		if err := addTemplates(catalog, p, data); err != nil {
			return domain.Catalog{}, err
		}
	}
	if err := catalog.Validate(); err != nil {
		return domain.Catalog{}, fmt.Errorf("validate catalog: %w", err)
	}
	return catalog, nil
}

func addTemplates(catalog domain.Catalog, p string, data []byte) error {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", p, err)
	}
	trigger := domain.Trigger(strings.TrimSpace(file.Trigger))
	if err := trigger.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	if want := strings.TrimSuffix(path.Base(p), path.Ext(p)); string(trigger) != want {
		return fmt.Errorf("%s: trigger %q must match file name %q", p, trigger, want)
	}
	for rawBand, entries := range file.Pools {
		band, err := healthband.Parse(strings.TrimSpace(rawBand))
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		key := domain.PoolKey{Trigger: trigger, Band: band}
		for _, e := range entries {
			catalog.Pools[key] = append(catalog.Pools[key], domain.Template{
				ID:    strings.TrimSpace(e.ID),
				Text:  strings.TrimSpace(e.Text),
				Emoji: e.Emoji,
				Limit: domain.LimitTag(strings.TrimSpace(e.Limit)),
			})
		}
	}
	return nil
}

func addIntercept(catalog domain.Catalog, data []byte) error {
	var file interceptStrings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	for rawBand, lines := range file.Redirect {
		band, err := healthband.Parse(rawBand)
		if err != nil {
			return fmt.Errorf("redirect: %w", err)
		}
		catalog.Redirect[band] = append(catalog.Redirect[band], lines...)
	}
	for rawBand, lines := range file.Pain {
		band, err := healthband.Parse(rawBand)
		if err != nil {
			return fmt.Errorf("pain: %w", err)
		}
		catalog.Pain[band] = append(catalog.Pain[band], lines...)
	}
	return nil
}
