package port

import (
	"context"

	"xscanner/internal/domain"
)

// Source (数据源): 负责从 X (Twitter) 抓取原始推文
// 可以是 X API v2，也可以是内置的测试数据
type Source interface {
	FetchTweets(ctx context.Context) ([]*domain.Tweet, error)
}

// Filter (过滤器): 分类前的纯预处理，去重、截断、时效过滤
type Filter interface {
	DeduplicateByID(tweets []*domain.Tweet, maxCount int) []*domain.Tweet
	FilterByCreatedAt(tweets []*domain.Tweet, maxDaysOld int) []*domain.Tweet
}

// Classifier (分类器): 把单条推文分类为 airdrop / startup / ignore
// 实现可以是远程 LLM，也可以是本地关键词规则
type Classifier interface {
	Classify(ctx context.Context, tweet *domain.Tweet) (*domain.ClassifiedItem, error)
}

// Analyzer (分析器): 批量驱动分类并汇总统计
type Analyzer interface {
	// ClassifyAll 按批次并发分类，丢弃 ignore 和失败项，保持输入顺序
	ClassifyAll(ctx context.Context, tweets []*domain.Tweet) ([]*domain.ClassifiedItem, error)

	// Summarize 对分类结果做排行/分布统计
	Summarize(items []*domain.ClassifiedItem) *domain.Summary
}

// Repository (仓库管理员): 负责跨运行的存储和查询
type Repository interface {
	Save(ctx context.Context, item *domain.ClassifiedItem) error

	// Exists 判断该推文是否已经入库 (跨运行防重)
	Exists(ctx context.Context, tweetID string) (bool, error)

	// GetRecent 取最近入库的 N 条，供 ask 模式做上下文
	GetRecent(ctx context.Context, limit int) ([]*domain.ClassifiedItem, error)

	GetUnnotified(ctx context.Context) ([]*domain.ClassifiedItem, error)
	MarkAsNotified(ctx context.Context, tweetID string) error
}

// Exporter (出口): 把分类结果和统计落盘 (CSV/JSON/报告)
type Exporter interface {
	Export(ctx context.Context, items []*domain.ClassifiedItem, summary *domain.Summary) error

	// LoadHistorical 读回最近 N 份导出结果，供报告模式重新聚合
	LoadHistorical(lastN int) ([]*domain.ClassifiedItem, error)
}

// Notifier (信使): 推送单个高价值发现
type Notifier interface {
	Notify(ctx context.Context, item *domain.ClassifiedItem) error
}

// Assistant (助手): 对已入库的发现做自然语言问答
type Assistant interface {
	SemanticSearch(ctx context.Context, items []*domain.ClassifiedItem, userQuery string) (string, error)
}
