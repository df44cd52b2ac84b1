package domain

import "time"

// Store は混雑マップに表示する店舗エンティティ。
// ID は作成時に外部で採番され、以後変更されない。
type Store struct {
	ID           string
	PlaceID      string
	Location     *Coordinate
	Name         string
	Address      string
	Type         StoreType
	OpeningHours string
	OfficialApps []LinkedApp
	Congestion   *CongestionSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPlace は混雑情報の取得対象となる条件（位置情報と placeId の両方を持つ）を満たすか返す。
func (s Store) HasPlace() bool {
	return s.Location != nil && s.PlaceID != ""
}

// Coordinate は緯度経度のペア。
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// CongestionSnapshot は店舗の混雑度の最新観測値。
// Level は 0（データなし）〜 5（非常に混雑）の序数で、LastUpdated は必ず書き込み時刻を持つ。
type CongestionSnapshot struct {
	Level       int
	LiveData    bool
	LastUpdated time.Time
}

// NewCongestionSnapshot は Level を [0,5] に丸めたスナップショットを生成する。
func NewCongestionSnapshot(level int, liveData bool, lastUpdated time.Time) CongestionSnapshot {
	if level < 0 {
		level = 0
	}
	if level > 5 {
		level = 5
	}
	return CongestionSnapshot{
		Level:       level,
		LiveData:    liveData,
		LastUpdated: lastUpdated,
	}
}

// LinkedApp は店舗に紐づく公式アプリ・チャネル。店舗ごとに Type は一意。
type LinkedApp struct {
	Type AppType
	URL  string
	Name string
}

// MergeApp は candidate と同じ Type の既存エントリを位置を保ったまま差し替え、
// 存在しなければ末尾へ追加した新しいリストを返す。元のスライスは変更しない。
func MergeApp(apps []LinkedApp, candidate LinkedApp) []LinkedApp {
	merged := append([]LinkedApp{}, apps...)
	for i, app := range merged {
		if app.Type == candidate.Type {
			merged[i] = candidate
			return merged
		}
	}
	return append(merged, candidate)
}
