package domain

import (
	"fmt"
	"time"
)

// Kind 是分类结果的类别
type Kind string

const (
	KindAirdrop Kind = "airdrop"
	KindStartup Kind = "startup"
	KindIgnore  Kind = "ignore" // 无关内容，不产出 ClassifiedItem
)

// Valid 判断类别是否在允许的枚举范围内
func (k Kind) Valid() bool {
	return k == KindAirdrop || k == KindStartup || k == KindIgnore
}

// Tweet 代表一条从 X (Twitter) 抓取的原始推文
// 由数据源产出后不再修改
type Tweet struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	Author          string    `json:"author"`
	AuthorFollowers int       `json:"author_followers"`
	CreatedAt       time.Time `json:"created_at"`
	Likes           int       `json:"likes"`
	Retweets        int       `json:"retweets"`
	URL             string    `json:"url"`
}

// ClassifiedItem 代表一条被识别为 airdrop 或 startup 的推文
// 附带 AI/规则抽取出的结构化信息，创建后不再修改
type ClassifiedItem struct {
	// 推文回溯信息
	TweetID         string    `json:"tweet_id" gorm:"primaryKey"`
	TweetURL        string    `json:"tweet_url"`
	Author          string    `json:"author"`
	AuthorFollowers int       `json:"author_followers"`
	CreatedAt       time.Time `json:"created_at"`
	OriginalText    string    `json:"original_text" gorm:"type:text"`

	// 互动量 = likes + retweets
	Engagement int `json:"engagement"`

	// 分类结果
	Kind       Kind    `json:"type" gorm:"column:kind"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`

	// --- 结构化抽取字段（可能缺失，nil 表示未提取到） ---

	ProjectName   *string `json:"project_name"`
	Chain         *string `json:"chain"`
	Category      *string `json:"category"`
	FundingAmount *string `json:"funding_amount"`
	Website       *string `json:"website"`
	Description   *string `json:"description"`

	Investors   []string `json:"investors" gorm:"serializer:json"`
	KeyFeatures []string `json:"key_features" gorm:"serializer:json"`

	// 推送状态（仅持久化层使用）
	AlreadyNotified bool `json:"-"`
}

// NewClassifiedItem 是 ClassifiedItem 的唯一构造入口
// 强制校验必填字段，并从推文拷贝回溯信息和互动量
func NewClassifiedItem(tweet *Tweet, kind Kind, confidence float64) (*ClassifiedItem, error) {
	if tweet == nil {
		return nil, fmt.Errorf("tweet 不能为空")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("未知的分类类别: %q", kind)
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence 必须在 [0,1] 区间内: %f", confidence)
	}

	return &ClassifiedItem{
		TweetID:         tweet.ID,
		TweetURL:        tweet.URL,
		Author:          tweet.Author,
		AuthorFollowers: tweet.AuthorFollowers,
		CreatedAt:       tweet.CreatedAt,
		OriginalText:    tweet.Text,
		Engagement:      tweet.Likes + tweet.Retweets,
		Kind:            kind,
		Confidence:      confidence,
		Investors:       []string{},
		KeyFeatures:     []string{},
	}, nil
}

// IsHighValue 判断是否值得立即推送 (高置信度 + 高互动)
func (c *ClassifiedItem) IsHighValue() bool {
	return c.Confidence >= 0.85 && c.Engagement > 500
}

// RankedCount 是排行榜中的一项 (名称 + 出现次数)
type RankedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BucketCounts 按高/中/低三档统计数量
type BucketCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// FundingInsight 融资相关的汇总信息
// AvgConfidence 只在 TotalFunded > 0 时有意义
type FundingInsight struct {
	TotalFunded   int           `json:"total_funded"`
	AvgConfidence float64       `json:"avg_confidence,omitempty"`
	TopInvestors  []RankedCount `json:"top_investors,omitempty"`
}

// Summary 是一次扫描的聚合统计，每次聚合重新计算，不跨运行保留状态
type Summary struct {
	ScanTime        time.Time      `json:"scan_timestamp"`
	TotalItems      int            `json:"total_items"`
	Airdrops        int            `json:"airdrops"`
	Startups        int            `json:"startups"`
	TopChains       []RankedCount  `json:"top_chains"`
	TopCategories   []RankedCount  `json:"top_categories"`
	Confidence      BucketCounts   `json:"confidence_distribution"`
	Engagement      BucketCounts   `json:"engagement_stats"`
	HighEngagement  int            `json:"high_engagement"`  // engagement > 100
	VerifiedAuthors int            `json:"verified_authors"` // followers > 10000
	Funding         FundingInsight `json:"funding_insights"`
}
