package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/storefront-labs/storecast/dailyseries"
)

// MaxForecastDays is how far ahead WeatherAPI serves daily forecasts.
const MaxForecastDays = 14

// ClientOptions configures the WeatherAPI client.
type ClientOptions struct {
	// APIKey authenticates against WeatherAPI. When empty the client
	// serves Demo forecasts instead of calling out.
	APIKey  string
	BaseURL string

	Timeout    time.Duration
	MaxRetries uint64

	// RequestsPerSec caps the outbound call rate.
	RequestsPerSec float64

	HTTPClient *http.Client
	Logger     zerolog.Logger
	NowFunc    func() time.Time
}

func NewDefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		BaseURL:        "https://api.weatherapi.com/v1",
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		RequestsPerSec: 5,
		Logger:         zerolog.Nop(),
	}
}

// Client fetches daily forecasts from WeatherAPI with retry and rate
// limiting. It implements Provider.
type Client struct {
	opt     *ClientOptions
	httpc   *http.Client
	limiter *rate.Limiter
	nowFunc func() time.Time
}

func NewClient(opt *ClientOptions) *Client {
	def := NewDefaultClientOptions()
	if opt == nil {
		opt = def
	}
	if opt.BaseURL == "" {
		opt.BaseURL = def.BaseURL
	}
	if opt.Timeout == 0 {
		opt.Timeout = def.Timeout
	}
	if opt.RequestsPerSec == 0 {
		opt.RequestsPerSec = def.RequestsPerSec
	}
	httpc := opt.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: opt.Timeout}
	}
	nowFunc := opt.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Client{
		opt:     opt,
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Limit(opt.RequestsPerSec), 1),
		nowFunc: nowFunc,
	}
}

// Forecast returns the day's outlook for the location. Dates outside
// tomorrow through MaxForecastDays ahead get the seasonal fallback, a
// missing API key gets the demo generator, and any fetch failure after
// retries degrades to the seasonal fallback.
func (c *Client) Forecast(ctx context.Context, loc Location, date time.Time) *Forecast {
	target := dailyseries.Midnight(date)
	today := dailyseries.Midnight(c.nowFunc())
	daysAhead := int(target.Sub(today).Hours() / 24)
	if daysAhead < 1 || daysAhead > MaxForecastDays {
		return Seasonal(target)
	}
	if c.opt.APIKey == "" {
		return Demo(target)
	}

	// the days parameter counts today as day one and tops out at 14, so
	// the farthest horizon day may come back absent and fall back below
	days := daysAhead + 1
	if days > MaxForecastDays {
		days = MaxForecastDays
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Seasonal(target)
	}

	f, err := backoff.RetryWithData(
		func() (*Forecast, error) {
			return c.fetch(ctx, loc, target, days)
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.opt.MaxRetries), ctx),
	)
	if err != nil {
		c.opt.Logger.Warn().Err(err).
			Time("date", target).
			Msg("weather fetch failed, using seasonal fallback")
		return Seasonal(target)
	}
	return f
}

type apiResponse struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC     float64 `json:"maxtemp_c"`
				MinTempC     float64 `json:"mintemp_c"`
				ChanceOfRain float64 `json:"daily_chance_of_rain"`
				AvgHumidity  float64 `json:"avghumidity"`
				MaxWindKPH   float64 `json:"maxwind_kph"`
				Condition    struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (c *Client) fetch(ctx context.Context, loc Location, target time.Time, days int) (*Forecast, error) {
	q := url.Values{}
	q.Set("key", c.opt.APIKey)
	q.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
	q.Set("days", fmt.Sprintf("%d", days))
	q.Set("lang", "ja")
	q.Set("aqi", "no")
	q.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opt.BaseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building weather request, %w", err))
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling weather api, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, backoff.Permanent(fmt.Errorf("weather api rejected request, status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding weather response, %w", err)
	}

	want := target.Format("2006-01-02")
	for _, fd := range body.Forecast.ForecastDay {
		if fd.Date != want {
			continue
		}
		return &Forecast{
			Date:          target,
			Condition:     fd.Day.Condition.Text,
			TempMax:       fd.Day.MaxTempC,
			TempMin:       fd.Day.MinTempC,
			Precipitation: fd.Day.ChanceOfRain,
			Humidity:      fd.Day.AvgHumidity,
			WindSpeed:     fd.Day.MaxWindKPH,
			Source:        SourceAPI,
		}, nil
	}
	return nil, backoff.Permanent(fmt.Errorf("weather response missing day %s", want))
}
