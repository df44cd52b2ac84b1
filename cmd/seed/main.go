// cmd/seed はローカル開発用に stores コレクションへサンプル店舗を投入するツール。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/machinaka-dev/congestion-map-services/api/internal/config"
	mongodoc "github.com/machinaka-dev/congestion-map-services/api/internal/infrastructure/mongo"
)

type sampleStore struct {
	id        string
	name      string
	address   string
	storeType string
	placeID   string
	latitude  float64
	longitude float64
}

var sampleStores = []sampleStore{
	{
		id:        "shibuya-center-cafe",
		name:      "センター街カフェ 渋谷店",
		address:   "東京都渋谷区宇田川町",
		storeType: "cafe",
		placeID:   "ChIJK9EM68qLGGARacmu4KJj5SA",
		latitude:  35.660405,
		longitude: 139.698562,
	},
	{
		id:        "shinjuku-west-bakery",
		name:      "ウエストベーカリー 新宿",
		address:   "東京都新宿区西新宿",
		storeType: "bakery",
		placeID:   "ChIJk6t2IpKMGGARxgRTzCDyt0Y",
		latitude:  35.690921,
		longitude: 139.700258,
	},
	{
		id:        "ikebukuro-family-dining",
		name:      "ファミリーダイニング池袋",
		address:   "東京都豊島区南池袋",
		storeType: "family_restaurant",
		placeID:   "ChIJk2HvbZeNGGARSsCzMUioDyM",
		latitude:  35.729503,
		longitude: 139.710900,
	},
	{
		// placeId なし: 混雑取り込みの対象外となる店舗の動作確認用。
		id:        "kagurazaka-kitchen",
		name:      "神楽坂キッチン",
		address:   "東京都新宿区神楽坂",
		storeType: "restaurant",
		latitude:  35.702579,
		longitude: 139.740375,
	},
}

func main() {
	drop := flag.Bool("drop", false, "投入前に stores コレクションを削除する")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("MongoDB 切断時にエラー: %v", err)
		}
	}()

	collection := client.Database(cfg.MongoDatabase).Collection(cfg.StoreCollection)

	if *drop {
		if err := collection.Drop(ctx); err != nil {
			log.Fatalf("stores コレクションの削除に失敗: %v", err)
		}
		log.Printf("stores コレクションを削除しました")
	}

	inserted := 0
	now := time.Now().UTC()
	for _, sample := range sampleStores {
		doc := mongodoc.StoreDocument{
			ID:        sample.id,
			Name:      sample.name,
			Address:   sample.address,
			Type:      sample.storeType,
			PlaceID:   sample.placeID,
			Location:  &mongodoc.CoordinateDocument{Latitude: sample.latitude, Longitude: sample.longitude},
			CreatedAt: &now,
			UpdatedAt: &now,
		}

		// 既存ドキュメントは上書きしない。再実行しても安全にする。
		if err := collection.FindOne(ctx, bson.M{"_id": sample.id}).Err(); err == nil {
			continue
		} else if err != mongo.ErrNoDocuments {
			log.Fatalf("既存ドキュメントの確認に失敗 id=%s: %v", sample.id, err)
		}

		if _, err := collection.InsertOne(ctx, doc); err != nil {
			log.Fatalf("サンプル店舗の投入に失敗 id=%s: %v", sample.id, err)
		}
		inserted++
	}

	fmt.Printf("サンプル店舗を %d 件投入しました (スキップ %d 件)\n", inserted, len(sampleStores)-inserted)
}
