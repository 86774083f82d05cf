package models

import (
	"time"
)

// Click строка таблицы short_url_click
type Click struct {
	ID         string    `json:"id"`
	ShortURLID string    `json:"short_url_id"`
	Time       time.Time `json:"time"`
	Addr       string    `json:"addr"`
	Referrer   string    `json:"referrer"`
	Agent      string    `json:"agent"`
}

// ClickMeta метаданные запроса, из которых строится клик.
// Отсутствующие заголовки передаются пустой строкой.
type ClickMeta struct {
	Addr     string
	Referrer string
	Agent    string
}

// CodedClick строка join-запроса short_url x short_url_click
type CodedClick struct {
	Code  string
	Click Click
}

type ClickView struct {
	Time     time.Time `json:"time"`
	Addr     string    `json:"addr"`
	Referrer string    `json:"referrer"`
	Agent    string    `json:"agent"`
	Browser  string    `json:"browser,omitempty"`
	OS       string    `json:"os,omitempty"`
	Device   string    `json:"device,omitempty"`
}

// AnalyticsResult код -> клики в порядке, в котором их вернуло хранилище.
// Коды без кликов в результат не попадают.
type AnalyticsResult map[string][]ClickView
