package domain

import "time"

// AppDiscovery は店舗アプリの登録・検出を記録する監査ログエントリ。
// 店舗ドキュメントとは独立して永続化され、通知と人手レビューの入力になる。
type AppDiscovery struct {
	ID           string
	StoreID      string
	AppName      string
	AppType      AppType
	URL          string
	DiscoveredAt time.Time
	Processed    bool
}
