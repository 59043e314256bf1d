package dispatch

import (
	"strings"
	"time"
)

// JournalSize is how many entries the journal keeps.
const JournalSize = 10

type Entry struct {
	At   time.Time
	Text string
}

func (e Entry) String() string {
	return e.At.Format("15:04:05") + ": " + e.Text
}

// Journal is the user-visible diagnostic log. It keeps only the most recent
// entries.
type Journal struct {
	size    int
	now     func() time.Time
	entries []Entry
}

func NewJournal(size int, now func() time.Time) *Journal {
	if size <= 0 {
		size = JournalSize
	}
	if now == nil {
		now = time.Now
	}
	return &Journal{size: size, now: now}
}

func (j *Journal) Add(text string) {
	j.entries = append(j.entries, Entry{At: j.now(), Text: text})
	if over := len(j.entries) - j.size; over > 0 {
		j.entries = append(j.entries[:0:0], j.entries[over:]...)
	}
}

func (j *Journal) Entries() []Entry {
	return append([]Entry(nil), j.entries...)
}

// Lines renders the entries oldest first.
func (j *Journal) Lines() []string {
	out := make([]string, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.String())
	}
	return out
}

func (j *Journal) Len() int {
	return len(j.entries)
}

// excerpt flattens text to one line of at most limit runes.
func excerpt(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	runes := []rune(compact)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
