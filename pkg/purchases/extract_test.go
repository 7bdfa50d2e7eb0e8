package purchases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrder(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantProduct string
		wantPrice   string
		wantDate    string
	}{
		{
			name: "plain text order mail",
			body: "ご注文ありがとうございます。\n商品名：エルゴノミクスオフィスチェア\n合計金額：¥29,800\n注文日時：2026年8月25日\n",
			wantProduct: "エルゴノミクスオフィスチェア",
			wantPrice:   "¥29,800",
			wantDate:    "2026年8月25日",
		},
		{
			name: "half-width colon",
			body: "商品名: スタンディングデスク\n合計金額: 45,000\n注文日時: 2026年1月3日",
			wantProduct: "スタンディングデスク",
			wantPrice:   "45,000",
			wantDate:    "2026年1月3日",
		},
		{
			name: "html body is stripped first",
			body: "<html><body><p>商品名：<b>腰痛対策クッション</b></p>\n<p>合計金額：¥3,980</p>\n<p>注文日時：2026年7月1日</p></body></html>",
			wantProduct: "腰痛対策クッション",
			wantPrice:   "¥3,980",
			wantDate:    "2026年7月1日",
		},
		{
			name: "product terminated by price label on same line",
			body: "商品名：メッシュチェア 価格：¥12,000\n合計金額：¥12,000\n注文日時：2026年3月10日",
			wantProduct: "メッシュチェア",
			wantPrice:   "¥12,000",
			wantDate:    "2026年3月10日",
		},
		{
			name:        "nothing recognizable",
			body:        "本日のおすすめ商品のご案内です。",
			wantProduct: "不明",
			wantPrice:   "不明",
			wantDate:    time.Now().Format("2006年1月2日"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractOrder(tt.body)
			assert.Equal(t, tt.wantProduct, got.Product)
			assert.Equal(t, tt.wantPrice, got.Price)
			assert.Equal(t, tt.wantDate, got.Date)
			assert.Equal(t, SourceAmazonEmail, got.Source)
		})
	}
}

func TestExtractOrder_ProductAtEndOfBody(t *testing.T) {
	got := ExtractOrder("商品名：モニターアーム")
	assert.Equal(t, "モニターアーム", got.Product)
}
