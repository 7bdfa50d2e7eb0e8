package purchases

import (
	"regexp"
	"strings"
	"time"

	"ai-partner-be/internal/model"
)

// SourceAmazonEmail tags orders extracted from Amazon confirmation mail.
const SourceAmazonEmail = "amazon_email"

var (
	htmlTagRe = regexp.MustCompile(`<[^<]+?>`)
	productRe = regexp.MustCompile(`(?s)商品名[：:]\s*(.+?)(?:\n|価格|$)`)
	priceRe   = regexp.MustCompile(`合計金額[：:]\s*([¥0-9,]+)`)
	dateRe    = regexp.MustCompile(`注文日時[：:]\s*(\d{4}年\d{1,2}月\d{1,2}日)`)
)

// ExtractOrder pulls one order record out of an Amazon confirmation email
// body. Fields that cannot be found default to 不明 (product, price) or
// today's date; extraction itself never fails.
func ExtractOrder(emailBody string) model.Order {
	text := htmlTagRe.ReplaceAllString(emailBody, "")

	product := "不明"
	if m := productRe.FindStringSubmatch(text); m != nil {
		product = strings.TrimSpace(m[1])
	}

	price := "不明"
	if m := priceRe.FindStringSubmatch(text); m != nil {
		price = m[1]
	}

	orderDate := formatJapaneseDate(time.Now())
	if m := dateRe.FindStringSubmatch(text); m != nil {
		orderDate = m[1]
	}

	return model.Order{
		Product: product,
		Price:   price,
		Date:    orderDate,
		Source:  SourceAmazonEmail,
	}
}

func formatJapaneseDate(t time.Time) string {
	return t.Format("2006年1月2日")
}
