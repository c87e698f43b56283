package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var offsetPattern = regexp.MustCompile(`(?:UTC|GMT)\s*([+-]?\d{1,2})`)

// DetectDisplayZone reads the site's timezone page and extracts the offset
// it renders calendar times in. Anonymous sessions default to the site's
// home zone, but the page is authoritative when it can be read.
func DetectDisplayZone(ctx context.Context, fetcher Fetcher, baseURL string) (*time.Location, error) {
	pageURL := strings.TrimSuffix(baseURL, "/") + "/timezone.php"
	markup, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	match := offsetPattern.FindStringSubmatch(markup)
	if match == nil {
		return nil, StructuralAbsenceError{Window: "timezone.php", Missing: "UTC/GMT offset"}
	}
	hours, err := strconv.Atoi(match[1])
	if err != nil || hours < -12 || hours > 14 {
		return nil, RowParseError{Window: "timezone.php", Err: fmt.Errorf("offset %q out of range", match[1])}
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600), nil
}
