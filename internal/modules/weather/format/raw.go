package format

// CurrentResponse is the subset of the OpenWeatherMap /weather payload the
// dashboard reads.
type CurrentResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
}

type Condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// ForecastResponse is the subset of the /forecast payload (3-hour steps).
type ForecastResponse struct {
	List []ForecastSample `json:"list"`
}

type ForecastSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
}

func firstCondition(conds []Condition) Condition {
	if len(conds) == 0 {
		return Condition{}
	}
	return conds[0]
}
