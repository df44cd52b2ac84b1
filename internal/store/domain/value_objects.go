package domain

import (
	"fmt"
	"strings"
)

// StoreType は店舗カテゴリの列挙値。
type StoreType string

const (
	StoreTypeCafe             StoreType = "cafe"
	StoreTypeRestaurant       StoreType = "restaurant"
	StoreTypeFamilyRestaurant StoreType = "family_restaurant"
	StoreTypeFastFood         StoreType = "fast_food"
	StoreTypeBakery           StoreType = "bakery"
	StoreTypeOther            StoreType = "other"
)

var allowedStoreTypes = []StoreType{
	StoreTypeCafe,
	StoreTypeRestaurant,
	StoreTypeFamilyRestaurant,
	StoreTypeFastFood,
	StoreTypeBakery,
	StoreTypeOther,
}

// NewStoreType は入力文字列を検証済みの StoreType へ変換する。
func NewStoreType(value string) (StoreType, error) {
	trimmed := strings.TrimSpace(value)
	for _, allowed := range allowedStoreTypes {
		if string(allowed) == trimmed {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("店舗カテゴリが不正です: %q", value)
}

func (t StoreType) String() string {
	return string(t)
}

// AppType は店舗公式アプリのチャネル種別。
type AppType string

const (
	AppTypeLine    AppType = "line"
	AppTypeIOS     AppType = "ios"
	AppTypeAndroid AppType = "android"
	AppTypeWeb     AppType = "web"
)

var allowedAppTypes = []AppType{AppTypeLine, AppTypeIOS, AppTypeAndroid, AppTypeWeb}

// NewAppType は入力文字列を検証済みの AppType へ変換する。
func NewAppType(value string) (AppType, error) {
	trimmed := strings.TrimSpace(value)
	for _, allowed := range allowedAppTypes {
		if string(allowed) == trimmed {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("アプリ種別が不正です: %q", value)
}

func (t AppType) String() string {
	return string(t)
}
