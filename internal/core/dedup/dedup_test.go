package dedup

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	repo, arch, at, tag string
}

func (r rec) DedupKey() Key            { return Key{Repo: r.repo, Arch: r.arch} }
func (r rec) PublishedTime() time.Time { return ParseInstant(r.at) }

func tags(rs []rec) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.tag)
	}
	return out
}

func TestLatest_KeepsNewestPerKey(t *testing.T) {
	in := []rec{
		{"a/x", "x86_64", "2024-01-01T00:00:00Z", "a1"},
		{"b/y", "x86_64", "2024-01-01T00:00:00Z", "b1"},
		{"a/x", "aarch64", "2024-01-02T00:00:00Z", "a-arm"},
		{"a/x", "x86_64", "2024-03-01T00:00:00Z", "a2"},
		{"b/y", "x86_64", "2023-12-31T00:00:00Z", "b0"},
	}
	assert.Equal(t, []string{"a2", "b1", "a-arm"}, tags(Latest(in)))
}

func TestLatest_TieKeepsFirst(t *testing.T) {
	in := []rec{
		{"a/x", "x86_64", "2024-01-01T00:00:00Z", "first"},
		{"a/x", "x86_64", "2024-01-01T00:00:00Z", "second"},
	}
	assert.Equal(t, []string{"first"}, tags(Latest(in)))
}

func TestLatest_ParsesOffsets(t *testing.T) {
	// 10:00+02:00 is 08:00Z, earlier than 09:00Z despite sorting later as text
	in := []rec{
		{"a/x", "x86_64", "2024-01-01T09:00:00Z", "utc"},
		{"a/x", "x86_64", "2024-01-01T10:00:00+02:00", "offset"},
	}
	assert.Equal(t, []string{"utc"}, tags(Latest(in)))
}

func TestLatest_UnparsableLoses(t *testing.T) {
	in := []rec{
		{"a/x", "x86_64", "garbage", "bad"},
		{"a/x", "x86_64", "2001-01-01T00:00:00Z", "good"},
		{"a/x", "x86_64", "", "empty"},
	}
	assert.Equal(t, []string{"good"}, tags(Latest(in)))
}

func TestLatest_Invariant(t *testing.T) {
	var in []rec
	for i := range 60 {
		in = append(in, rec{
			repo: fmt.Sprintf("o/r%d", i%5),
			arch: []string{"x86_64", "aarch64"}[i%2],
			at:   time.Date(2024, 1, 1+i%17, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			tag:  fmt.Sprint(i),
		})
	}
	out := Latest(in)

	seen := map[Key]bool{}
	for _, r := range out {
		require.False(t, seen[r.DedupKey()], "duplicate key %v", r.DedupKey())
		seen[r.DedupKey()] = true
		for _, c := range in {
			if c.DedupKey() == r.DedupKey() {
				assert.False(t, c.PublishedTime().After(r.PublishedTime()))
			}
		}
	}
	assert.Len(t, out, 10)
	assert.Equal(t, out, Latest(out))
}

func TestLatest_Small(t *testing.T) {
	assert.Empty(t, Latest[rec](nil))
	one := []rec{{"a/x", "x86_64", "", "only"}}
	assert.Equal(t, one, Latest(one))
}

func TestAccumulator_CollapseAndCopy(t *testing.T) {
	acc := NewAccumulator[rec]()
	acc.Add(
		rec{"a/x", "x86_64", "2024-01-01T00:00:00Z", "old"},
		rec{"a/x", "x86_64", "2024-02-01T00:00:00Z", "new"},
	)
	acc.Add()
	require.Equal(t, 2, acc.Len())

	assert.Equal(t, 1, acc.Collapse())
	got := acc.Records()
	assert.Equal(t, []string{"new"}, tags(got))

	got[0].tag = "mutated"
	assert.Equal(t, []string{"new"}, tags(acc.Records()))
}

func TestAccumulator_ConcurrentAdd(t *testing.T) {
	acc := NewAccumulator[rec]()
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				acc.Add(rec{fmt.Sprintf("o/r%d", w), "x86_64", "2024-01-01T00:00:00Z", fmt.Sprint(i)})
			}
			acc.Collapse()
		}()
	}
	wg.Wait()
	acc.Collapse()
	assert.Equal(t, 8, acc.Len())
}
