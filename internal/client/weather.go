package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// WeatherClient OpenWeatherMap 当前天气
type WeatherClient struct {
	apiKey     string
	baseURL    string
	units      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWeatherClient 创建客户端
func NewWeatherClient(apiKey, baseURL, units string, hc *http.Client, logger *zap.Logger) *WeatherClient {
	return &WeatherClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		units:      units,
		httpClient: hc,
		logger:     logger,
	}
}

// Current 查询城市当前天气
func (c *WeatherClient) Current(ctx context.Context, city string) (model.WeatherReport, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)

	body, err := doGet(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		if msg := gjson.GetBytes(body, "message").String(); msg != "" {
			return model.WeatherReport{}, fmt.Errorf("%w (%s)", err, msg)
		}
		return model.WeatherReport{}, err
	}

	doc := gjson.ParseBytes(body)
	if !doc.Get("main.temp").Exists() {
		return model.WeatherReport{}, fmt.Errorf("%w: missing main.temp", ErrEmptyAnswer)
	}

	report := model.WeatherReport{
		City:        doc.Get("name").String(),
		Country:     doc.Get("sys.country").String(),
		Temperature: doc.Get("main.temp").Float(),
		FeelsLike:   doc.Get("main.feels_like").Float(),
		Humidity:    int(doc.Get("main.humidity").Int()),
		Description: doc.Get("weather.0.description").String(),
		Units:       c.units,
	}
	if report.City == "" {
		report.City = city
	}
	c.logger.Debug("天气查询完成", zap.String("city", report.City))
	return report, nil
}
