// Package quality switches between renditions of the same video while keeping the position and
// the play state across the switch.
package quality

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reelctl/reelctl/filesystem"
	"github.com/reelctl/reelctl/i18n"
	"github.com/reelctl/reelctl/stream"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Entry is one rendition. Names holds its display name per BCP 47 language.
type Entry struct {
	Key   int               `mapstructure:"key" json:"key"`
	URL   string            `mapstructure:"url" json:"url"`
	Names map[string]string `mapstructure:"names" json:"names"`
}

// Config is the list of renditions and the one being played.
type Config struct {
	CurrentKey int     `mapstructure:"current" json:"current"`
	List       []Entry `mapstructure:"list" json:"list"`
}

var ErrEmpty = errors.New("quality list is empty")

// Validate checks that keys are unique, URLs are set and the current key names an entry.
func (c Config) Validate() error {
	if len(c.List) == 0 {
		return ErrEmpty
	}

	var errs []error
	for _, dup := range lo.FindDuplicatesBy(c.List, func(e Entry) int { return e.Key }) {
		errs = append(errs, fmt.Errorf("quality key %d is used more than once", dup.Key))
	}
	for _, e := range c.List {
		if e.URL == "" {
			errs = append(errs, fmt.Errorf("quality %d has no url", e.Key))
		}
	}
	if _, ok := c.Lookup(c.CurrentKey); !ok {
		errs = append(errs, fmt.Errorf("current quality %d is not in the list", c.CurrentKey))
	}

	return errors.Join(errs...)
}

// Lookup returns the entry with key k.
func (c Config) Lookup(k int) (Entry, bool) {
	return lo.Find(c.List, func(e Entry) bool { return e.Key == k })
}

// Current returns the entry being played.
func (c Config) Current() (Entry, bool) {
	return c.Lookup(c.CurrentKey)
}

// DisplayName returns the name of e in the language closest to tag, the key itself when e has
// no names.
func DisplayName(e Entry, tag language.Tag) string {
	if len(e.Names) == 0 {
		return strconv.Itoa(e.Key)
	}

	names := lo.Keys(e.Names)
	sort.Strings(names)

	tags := make([]language.Tag, 0, len(names))
	values := make([]string, 0, len(names))
	for _, name := range names {
		t, err := language.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, t)
		values = append(values, e.Names[name])
	}
	if len(tags) == 0 {
		return e.Names[names[0]]
	}

	_, i, _ := language.NewMatcher(tags).Match(tag)
	return values[i]
}

// Names returns the display names of every entry, in list order.
func (c Config) Names(tag language.Tag) []string {
	return lo.Map(c.List, func(e Entry, _ int) string { return DisplayName(e, tag) })
}

// Load reads a quality list from a JSON, TOML or YAML file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetFs(filesystem.API())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read quality list: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode quality list: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Single wraps one URL into a config, for sources without alternative renditions.
func Single(url string) Config {
	return Config{
		CurrentKey: 0,
		List: []Entry{{
			Key:   0,
			URL:   url,
			Names: map[string]string{"en": "Auto", "zh": "自动"},
		}},
	}
}

// Language is a convenience for callers holding the configured language name.
func Language(name string) language.Tag {
	return i18n.Parse(name)
}

// FromVariants builds a list out of the renditions of a master playlist, lowest bandwidth first,
// starting on the highest one. Keys follow list order.
func FromVariants(variants []stream.Variant) Config {
	sorted := append([]stream.Variant(nil), variants...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Bandwidth < sorted[j].Bandwidth })

	c := Config{List: make([]Entry, 0, len(sorted))}
	for i, v := range sorted {
		name := variantName(v)
		c.List = append(c.List, Entry{
			Key:   i,
			URL:   v.URI,
			Names: map[string]string{"en": name, "zh": name},
		})
	}
	if len(c.List) > 0 {
		c.CurrentKey = c.List[len(c.List)-1].Key
	}
	return c
}

// variantName is the vertical resolution ("720p") when known, the bandwidth otherwise.
func variantName(v stream.Variant) string {
	if _, height, ok := strings.Cut(v.Resolution, "x"); ok && height != "" {
		return height + "p"
	}
	return fmt.Sprintf("%.1f Mbps", float64(v.Bandwidth)/1e6)
}
