package analyzer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"xscanner/internal/domain"
	"xscanner/internal/port"

	"golang.org/x/time/rate"
)

// 批次之间的固定停顿，避免触发远程 API 限流
const batchPause = time.Second

// TweetAnalyzer 实现 port.Analyzer
// 按批次驱动分类：批内并发 (并发度=批大小)，批间严格串行
type TweetAnalyzer struct {
	classifier port.Classifier
	batchSize  int
	limiter    *rate.Limiter
	nowFunc    func() time.Time // 便于测试注入当前时间
}

// NewTweetAnalyzer 创建分析器，batchSize <= 0 时取缺省值 10
func NewTweetAnalyzer(classifier port.Classifier, batchSize int) *TweetAnalyzer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &TweetAnalyzer{
		classifier: classifier,
		batchSize:  batchSize,
		limiter:    rate.NewLimiter(rate.Every(batchPause), 1),
		nowFunc:    time.Now,
	}
}

// ClassifyAll 把推文切成连续批次并发分类
// 输出保持输入顺序；ignore 和失败项直接丢弃，单项失败绝不影响批次内
// 其他推文和后续批次
func (a *TweetAnalyzer) ClassifyAll(ctx context.Context, tweets []*domain.Tweet) ([]*domain.ClassifiedItem, error) {
	totalBatches := (len(tweets) + a.batchSize - 1) / a.batchSize
	items := make([]*domain.ClassifiedItem, 0, len(tweets))

	for start := 0; start < len(tweets); start += a.batchSize {
		// 批间限速 (首批立即放行)；上下文取消时带着已有结果返回
		if err := a.limiter.Wait(ctx); err != nil {
			fmt.Println("⏰ 分类因超时或取消而中断")
			return items, err
		}

		end := min(start+a.batchSize, len(tweets))
		batch := tweets[start:end]
		fmt.Printf("🤖 正在处理批次 %d/%d (%d 条推文)\n",
			start/a.batchSize+1, totalBatches, len(batch))

		// 结果按下标回填，保证输出顺序 = 输入顺序而不是完成顺序
		results := make([]*domain.ClassifiedItem, len(batch))
		var wg sync.WaitGroup
		for i, tweet := range batch {
			wg.Add(1)
			go a.classifyOne(ctx, tweet, &results[i], &wg)
		}
		wg.Wait() // 批次间同步屏障

		for _, item := range results {
			if item != nil {
				items = append(items, item)
			}
		}
	}

	return items, nil
}

// classifyOne 处理单条推文，任何意外 (包括 panic) 只丢弃该条
func (a *TweetAnalyzer) classifyOne(ctx context.Context, tweet *domain.Tweet, slot **domain.ClassifiedItem, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ 推文 %s 分类时发生 panic，已丢弃: %v", tweet.ID, r)
		}
	}()

	item, err := a.classifier.Classify(ctx, tweet)
	if err != nil {
		log.Printf("❌ 推文 %s 分类失败，已丢弃: %v", tweet.ID, err)
		return
	}
	if item == nil || item.Kind == domain.KindIgnore {
		return
	}

	name := "Unknown"
	if item.ProjectName != nil {
		name = *item.ProjectName
	}
	fmt.Printf("   ✅ %s: %s\n", item.Kind, name)
	*slot = item
}
