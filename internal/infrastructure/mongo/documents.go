package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoordinateDocument は店舗ドキュメント内の location 埋め込み構造を表す。
type CoordinateDocument struct {
	Latitude  float64 `bson:"latitude"`
	Longitude float64 `bson:"longitude"`
}

// CongestionDocument は混雑スナップショットの埋め込み構造を表す。
type CongestionDocument struct {
	Level       int       `bson:"level"`
	LiveData    bool      `bson:"liveData"`
	LastUpdated time.Time `bson:"lastUpdated"`
}

// LinkedAppDocument は店舗公式アプリ 1 件分の埋め込み構造を表す。
type LinkedAppDocument struct {
	Type string `bson:"type"`
	URL  string `bson:"url"`
	Name string `bson:"name"`
}

// StoreDocument は MongoDB 上での店舗スキーマを Go 構造体として表現したもの。
// _id は店舗作成時に外部で採番された文字列をそのまま保持する。
type StoreDocument struct {
	ID           string              `bson:"_id"`
	Name         string              `bson:"name"`
	Address      string              `bson:"address,omitempty"`
	Type         string              `bson:"type,omitempty"`
	PlaceID      string              `bson:"placeId,omitempty"`
	Location     *CoordinateDocument `bson:"location,omitempty"`
	OpeningHours string              `bson:"openingHours,omitempty"`
	OfficialApps []LinkedAppDocument `bson:"officialApps,omitempty"`
	Congestion   *CongestionDocument `bson:"congestion,omitempty"`
	CreatedAt    *time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt    *time.Time          `bson:"updatedAt,omitempty"`
}

// AppDiscoveryDocument は app_updates コレクションの発見レコードスキーマ。
type AppDiscoveryDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	StoreID      string             `bson:"storeId"`
	AppName      string             `bson:"appName"`
	AppType      string             `bson:"appType"`
	URL          string             `bson:"url"`
	DiscoveredAt time.Time          `bson:"discoveredAt"`
	Processed    bool               `bson:"processed"`
}
