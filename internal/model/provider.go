package model

// WeatherReport 天气查询结果
type WeatherReport struct {
	City        string  `json:"city"`
	Country     string  `json:"country,omitempty"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	Units       string  `json:"units"`
}

// SearchResult 网页搜索结果
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// InstantAnswer 即时答案（DuckDuckGo Instant Answer）
type InstantAnswer struct {
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
	Source  string `json:"source,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Video 视频搜索结果
type Video struct {
	Title   string `json:"title"`
	Channel string `json:"channel"`
	URL     string `json:"url"`
}
