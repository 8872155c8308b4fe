// Package history remembers what was played and where playback stopped.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/metafates/gache"
	"github.com/reelctl/reelctl/filesystem"
	"github.com/reelctl/reelctl/util"
	"github.com/reelctl/reelctl/where"
)

// finishedMargin is how close to the end a stop counts as having watched it through.
const finishedMargin = 5.0

// Record is one played source. Source is the url, or the path of the quality list when FromFile is set.
type Record struct {
	Source   string    `json:"source"`
	FromFile bool      `json:"from_file"`
	Title    string    `json:"title"`
	Quality  int       `json:"quality"`
	Position float64   `json:"position"`
	Duration float64   `json:"duration"`
	PlayedAt time.Time `json:"played_at"`
}

// Finished reports whether playback stopped at the end.
func (r *Record) Finished() bool {
	return r.Duration > 0 && r.Position >= r.Duration-finishedMargin
}

func (r *Record) String() string {
	title := r.Title
	if title == "" {
		title = r.Source
	}
	if r.Duration <= 0 {
		return title
	}
	return fmt.Sprintf("%s  %s / %s", title, util.FormatClock(r.Position), util.FormatClock(r.Duration))
}

var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every record keyed by source.
func Get() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// Recent returns the records, most recently played first.
func Recent() ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(saved))
	for _, r := range saved {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PlayedAt.After(records[j].PlayedAt)
	})
	return records, nil
}

// Find returns the record of source, if any.
func Find(source string) (*Record, bool, error) {
	saved, err := Get()
	if err != nil {
		return nil, false, err
	}
	r, ok := saved[source]
	return r, ok, nil
}

// Save replaces the record of r.Source. A source played to the end is stored at the start so that it
// is not resumed on its last seconds.
func Save(r *Record) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record := *r
	if record.Finished() {
		record.Position = 0
	}
	saved[record.Source] = &record

	return cacher.Set(saved)
}

// Remove forgets source.
func Remove(source string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, source)
	return cacher.Set(saved)
}
