package treasury

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
)

// DefaultCSVURL is the daily par yield curve download; %d is the calendar year.
const DefaultCSVURL = "https://home.treasury.gov/resource-center/data-chart-center/interest-rates/daily-treasury-rates.csv/%d/all?type=daily_treasury_yield_curve&field_tdr_date_value=%d&page&_format=csv"

const csvDateLayout = "01/02/2006"

var errEmptyCurve = errors.New("yield curve has no tenors")

// columnLabels maps the CSV header of each published maturity to its tenor label
var columnLabels = map[string]string{
	"1 Mo":  "1M",
	"2 Mo":  "2M",
	"3 Mo":  "3M",
	"4 Mo":  "4M",
	"6 Mo":  "6M",
	"1 Yr":  "1Y",
	"2 Yr":  "2Y",
	"3 Yr":  "3Y",
	"5 Yr":  "5Y",
	"7 Yr":  "7Y",
	"10 Yr": "10Y",
	"20 Yr": "20Y",
	"30 Yr": "30Y",
}

// Client downloads the Treasury daily par yield curve
type Client struct {
	httpClient *http.Client
	urlFormat  string
	now        func() time.Time
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithURL overrides the CSV location. The format may contain up to two %d
// verbs, both replaced by the current year.
func WithURL(format string) ClientOption {
	return func(c *Client) {
		c.urlFormat = format
	}
}

// WithHTTPClient sets the HTTP client used for downloads
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock sets the clock used to pick the year to download
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

func NewClient(options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		urlFormat: DefaultCSVURL,
		now:       time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) url() string {
	year := c.now().Year()
	switch strings.Count(c.urlFormat, "%d") {
	case 0:
		return c.urlFormat
	case 1:
		return fmt.Sprintf(c.urlFormat, year)
	default:
		return fmt.Sprintf(c.urlFormat, year, year)
	}
}

// FetchCurve downloads the CSV and returns the most recent record date
func (c *Client) FetchCurve(ctx context.Context) (*Curve, error) {
	url := c.url()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewDataUnavailableError("treasury", errors.Wrap(err, "creating request"))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewDataUnavailableError("treasury", errors.Wrap(err, "fetching yield curve"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewDataUnavailableError("treasury", errors.Errorf("treasury returned status %d", resp.StatusCode))
	}

	curve, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, models.NewDataUnavailableError("treasury", err)
	}

	zap.L().Debug("fetched treasury curve",
		zap.String("url", url),
		zap.Time("record_date", curve.Date),
		zap.Int("tenors", len(curve.Tenors)),
	)
	return curve, nil
}

// GetYield returns the yield of the tenor nearest to tenorYears on the latest curve
func (c *Client) GetYield(ctx context.Context, tenorYears float64) (float64, error) {
	curve, err := c.FetchCurve(ctx)
	if err != nil {
		return 0, err
	}
	t, err := curve.Nearest(tenorYears)
	if err != nil {
		return 0, err
	}
	return t.Yield, nil
}

// ParseCSV reads a par yield curve CSV and returns the newest row. Percent
// values are converted to decimals; blank cells and unknown columns are skipped.
func ParseCSV(r io.Reader) (*Curve, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if len(header) == 0 || header[0] != "Date" {
		return nil, errors.Errorf("unexpected csv header %q", header)
	}

	var latest *Curve
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading csv row")
		}

		date, err := time.Parse(csvDateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing record date %q", record[0])
		}
		if latest != nil && !date.After(latest.Date) {
			continue
		}

		curve := &Curve{Date: date}
		for _, std := range StandardTenors {
			for i := 1; i < len(header) && i < len(record); i++ {
				if columnLabels[header[i]] != std.Label {
					continue
				}
				cell := strings.TrimSpace(record[i])
				if cell == "" || cell == "N/A" {
					break
				}
				pct, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "parsing %s yield on %s", header[i], record[0])
				}
				curve.Tenors = append(curve.Tenors, Tenor{Label: std.Label, Years: std.Years, Yield: pct / 100})
				break
			}
		}
		latest = curve
	}

	if latest == nil {
		return nil, errors.New("yield curve csv has no rows")
	}
	if len(latest.Tenors) == 0 {
		return nil, errEmptyCurve
	}
	return latest, nil
}
