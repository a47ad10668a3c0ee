package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDomainMapPicksLatestAtOrBefore(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "domains_2024-01-01.csv", "ip,domain\n1.1.1.1,one.example\n")
	writeCSV(t, dir, "domains_2024-01-05.csv", "ip,domain\n1.1.1.1,five.example\n")
	writeCSV(t, dir, "domains_2024-01-09.csv", "ip,domain\n1.1.1.1,nine.example\n")

	r := &Reader{Dir: dir}
	assert.Equal(t, "five.example", r.LoadDomainMap("2024-01-07")["1.1.1.1"])
	assert.Equal(t, "five.example", r.LoadDomainMap("2024-01-05")["1.1.1.1"])
	assert.Equal(t, "nine.example", r.LoadDomainMap("2024-02-01")["1.1.1.1"])
}

func TestLoadDomainMapBeforeAnyFileFallsBackToNewest(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "domains_2024-01-05.csv", "ip,domain\n1.1.1.1,five.example\n")
	writeCSV(t, dir, "domains_2024-01-09.csv", "ip,domain\n1.1.1.1,nine.example\n")

	r := &Reader{Dir: dir}
	assert.Equal(t, "nine.example", r.LoadDomainMap("2023-12-31")["1.1.1.1"])
}

func TestLoadDomainMapEmpty(t *testing.T) {
	r := &Reader{Dir: t.TempDir()}
	m := r.LoadDomainMap("2024-01-01")
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestLoadDomainMapSkipsBlankPairs(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "domains_2024-01-01.csv", "ip,domain\n1.1.1.1,\n,x.example\n2.2.2.2,two.example\n")

	r := &Reader{Dir: dir}
	m := r.LoadDomainMap("2024-01-01")
	assert.Equal(t, map[string]string{"2.2.2.2": "two.example"}, m)
}

func TestLooksLikeIP(t *testing.T) {
	assert.True(t, LooksLikeIP("1.2.3.4"))
	assert.True(t, LooksLikeIP("255.255.255.255"))
	assert.False(t, LooksLikeIP("256.1.1.1"))
	assert.False(t, LooksLikeIP("1.2.3"))
	assert.False(t, LooksLikeIP("1.2.3.4.5"))
	assert.False(t, LooksLikeIP("a.b.c.d"))
	assert.False(t, LooksLikeIP("example.com"))
	assert.False(t, LooksLikeIP("1..2.3"))
	assert.False(t, LooksLikeIP(""))
}

func TestResolveDst(t *testing.T) {
	mapping := map[string]string{"1.1.1.1": "one.example"}

	assert.Equal(t, "one.example", ResolveDst("1.1.1.1", mapping))
	assert.Equal(t, "2.2.2.2", ResolveDst("2.2.2.2", mapping))
	// Hostnames never go through the map, even when a key matches.
	assert.Equal(t, "example.com", ResolveDst("example.com", mapping))
	assert.Equal(t, "-", ResolveDst("", mapping))
	assert.Equal(t, "-", ResolveDst("  ", mapping))
}
