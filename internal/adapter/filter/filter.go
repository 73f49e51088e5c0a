package filter

import (
	"time"

	"xscanner/internal/domain"
)

// TweetFilter 负责进入分类流水线前的预处理：去重、截断、时效过滤
// 全部是纯函数，不做任何外部调用
type TweetFilter struct {
	nowFunc func() time.Time
}

// NewTweetFilter 创建新的过滤器实例
func NewTweetFilter() *TweetFilter {
	return &TweetFilter{nowFunc: time.Now}
}

// DeduplicateByID 按 ID 去重，保留首次出现的那条，维持原始顺序
// maxCount > 0 时把结果截断到最多 maxCount 条
func (f *TweetFilter) DeduplicateByID(tweets []*domain.Tweet, maxCount int) []*domain.Tweet {
	seen := make(map[string]struct{}, len(tweets))
	unique := make([]*domain.Tweet, 0, len(tweets))

	for _, tweet := range tweets {
		if _, dup := seen[tweet.ID]; dup {
			continue
		}
		seen[tweet.ID] = struct{}{}
		unique = append(unique, tweet)
	}

	if maxCount > 0 && len(unique) > maxCount {
		unique = unique[:maxCount]
	}
	return unique
}

// FilterByCreatedAt 过滤掉发布时间超过指定天数的推文
func (f *TweetFilter) FilterByCreatedAt(tweets []*domain.Tweet, maxDaysOld int) []*domain.Tweet {
	maxAge := time.Duration(maxDaysOld) * 24 * time.Hour
	current := time.Now()
	if f != nil && f.nowFunc != nil {
		current = f.nowFunc()
	}

	filtered := make([]*domain.Tweet, 0, len(tweets))
	for _, tweet := range tweets {
		if current.Sub(tweet.CreatedAt) <= maxAge {
			filtered = append(filtered, tweet)
		}
	}
	return filtered
}
