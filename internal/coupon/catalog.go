package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// mapCatalog implements Catalog with a map keyed by normalised code.
type mapCatalog struct {
	promos map[string]Promo
}

// newMapCatalog creates an empty catalog.
func newMapCatalog(capacity int) *mapCatalog {
	return &mapCatalog{
		promos: make(map[string]Promo, capacity),
	}
}

func (c *mapCatalog) Lookup(code string) (Promo, bool) {
	p, ok := c.promos[NormaliseCode(code)]
	return p, ok
}

func (c *mapCatalog) Size() int {
	return len(c.promos)
}

// Add stores a promo, replacing any previous entry with the same code.
func (c *mapCatalog) Add(p Promo) {
	c.promos[p.Code] = p
}

// readCatalog decompresses r and parses one promo per line. Blank lines and
// lines starting with # are skipped; malformed lines are logged and skipped.
func readCatalog(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) (*mapCatalog, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	catalog := newMapCatalog(64)

	scanner := bufio.NewScanner(gzipReader)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		promo, err := ParsePromo(line)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("source", source).
				Int("line", lineNo).
				Msg("skipping malformed promo line")
			continue
		}
		catalog.Add(promo)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading promo catalog %s: %w", source, err)
	}

	return catalog, nil
}
