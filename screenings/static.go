package screenings

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/client"
	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

// StaticDiscovery reads the server-rendered movie page.
type StaticDiscovery struct {
	client client.Extractor
	logger *zap.Logger
}

func NewStaticDiscovery(c client.Extractor, logger *zap.Logger) *StaticDiscovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticDiscovery{client: c, logger: logger}
}

func (s *StaticDiscovery) Discover(ctx context.Context, movieURL string, filter Filter, targetDate time.Time) ([]entities.ScreeningDescriptor, error) {
	page, err := s.client.GetPage(ctx, movieURL)
	if err != nil {
		return nil, &DiscoveryError{URL: movieURL, Err: err}
	}
	found, err := ParseShowtimes(page)
	if err != nil {
		return nil, &DiscoveryError{URL: movieURL, Err: err}
	}
	kept := filter.Apply(found, targetDate)
	s.logger.Debug("static showtimes",
		zap.String("url", movieURL), zap.Int("found", len(found)), zap.Int("kept", len(kept)))
	return kept, nil
}

// ParseShowtimes lists the showtime buttons of a movie page. Buttons without
// an order URL or a time in their label are ignored.
func ParseShowtimes(page string) ([]entities.ScreeningDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var found []entities.ScreeningDescriptor
	doc.Find(constant.ShowtimeColumnSelector).Each(func(_ int, column *goquery.Selection) {
		column.Find(constant.ShowtimeAnchorSelector).Each(func(_ int, a *goquery.Selection) {
			orderURL, ok := a.Attr(constant.ShowtimeOrderURLAttr)
			if !ok || orderURL == "" {
				return
			}
			label := strings.TrimSpace(a.Text())
			showTime, ok := ParseShowTime(label)
			if !ok {
				return
			}
			metadata := make(map[string]string)
			for _, node := range a.Nodes {
				for _, attr := range node.Attr {
					if strings.HasPrefix(attr.Key, "data-") && attr.Key != constant.ShowtimeOrderURLAttr {
						metadata[attr.Key] = attr.Val
					}
				}
			}
			found = append(found, entities.ScreeningDescriptor{
				Label:    label,
				ShowTime: showTime,
				OrderURL: orderURL,
				Metadata: metadata,
			})
		})
	})
	return found, nil
}
