package sound

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Kind string

const (
	KindDefault      Kind = "default"
	KindNotification Kind = "notification"
	KindAlarm        Kind = "alarm"
)

type Sound struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
}

var audioExt = map[string]bool{
	".ogg":  true,
	".oga":  true,
	".wav":  true,
	".mp3":  true,
	".flac": true,
}

// Catalog lists the sounds available for reminders. Sounds found under
// alarm directories are titled with an " (Alarm)" suffix.
type Catalog struct {
	notificationDirs []string
	alarmDirs        []string
}

func NewCatalog(notificationDirs, alarmDirs []string) *Catalog {
	return &Catalog{notificationDirs: notificationDirs, alarmDirs: alarmDirs}
}

// List returns the "Default" entry followed by notification and alarm
// sounds, each group sorted by title. Missing directories are skipped.
func (c *Catalog) List() ([]Sound, error) {
	out := []Sound{{ID: "", Title: "Default", Kind: KindDefault}}
	notifications, err := scanDirs(c.notificationDirs, KindNotification, "")
	if err != nil {
		return nil, err
	}
	alarms, err := scanDirs(c.alarmDirs, KindAlarm, " (Alarm)")
	if err != nil {
		return nil, err
	}
	out = append(out, notifications...)
	return append(out, alarms...), nil
}

// Default picks the first notification sound, then the first alarm sound.
func (c *Catalog) Default() (Sound, bool) {
	all, err := c.List()
	if err != nil {
		return Sound{}, false
	}
	for _, kind := range []Kind{KindNotification, KindAlarm} {
		for _, s := range all {
			if s.Kind == kind {
				return s, true
			}
		}
	}
	return Sound{}, false
}

func (c *Catalog) DefaultID() string {
	s, _ := c.Default()
	return s.ID
}

func (c *Catalog) Lookup(id string) (Sound, bool) {
	all, err := c.List()
	if err != nil {
		return Sound{}, false
	}
	for _, s := range all {
		if s.ID == id {
			return s, true
		}
	}
	return Sound{}, false
}

func scanDirs(dirs []string, kind Kind, suffix string) ([]Sound, error) {
	out := make([]Sound, 0)
	seen := make(map[string]bool)
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() || !audioExt[strings.ToLower(filepath.Ext(path))] || seen[path] {
				return nil
			}
			seen[path] = true
			name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			out = append(out, Sound{ID: path, Title: name + suffix, Kind: kind})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
