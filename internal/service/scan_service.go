package service

import (
	"context"
	"fmt"
	"log"

	"xscanner/internal/domain"
	"xscanner/internal/port"
)

// ScanService 驱动一次完整的扫描流水线：
// 数据源 → 时效过滤/去重 → 批量分类 → 聚合 → 导出/入库/推送
type ScanService struct {
	source   port.Source
	filter   port.Filter
	analyzer port.Analyzer
	exporter port.Exporter
	repo     port.Repository // 可为 nil (未配置数据库)
	notifier port.Notifier   // 可为 nil (未配置 Webhook)

	maxTweets int
	daysBack  int
}

// NewScanService 创建扫描服务
func NewScanService(
	source port.Source,
	filter port.Filter,
	analyzer port.Analyzer,
	exporter port.Exporter,
	repo port.Repository,
	notifier port.Notifier,
	maxTweets int,
	daysBack int,
) *ScanService {
	return &ScanService{
		source:    source,
		filter:    filter,
		analyzer:  analyzer,
		exporter:  exporter,
		repo:      repo,
		notifier:  notifier,
		maxTweets: maxTweets,
		daysBack:  daysBack,
	}
}

// Scan 执行一次扫描周期，返回本次的分类结果和统计
func (s *ScanService) Scan(ctx context.Context) ([]*domain.ClassifiedItem, *domain.Summary, error) {
	fmt.Println("🚀 XScanner 开始扫描...")

	// 1. 数据源
	fmt.Println("📡 正在抓取推文...")
	tweets, err := s.source.FetchTweets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("抓取推文失败: %w", err)
	}
	fmt.Printf("✅ 共获取 %d 条推文\n", len(tweets))

	if len(tweets) == 0 {
		fmt.Println("❌ 没有抓到任何推文，本轮结束")
		return nil, nil, nil
	}

	// 2. 预处理：时效过滤 + 按 ID 去重 + 总量截断
	if s.daysBack > 0 {
		tweets = s.filter.FilterByCreatedAt(tweets, s.daysBack)
		fmt.Printf("✅ 时效过滤后剩余 %d 条\n", len(tweets))
	}
	tweets = s.filter.DeduplicateByID(tweets, s.maxTweets)
	fmt.Printf("✅ 去重后剩余 %d 条\n", len(tweets))

	// 3. 批量分类
	fmt.Println("🤖 开始分类...")
	items, err := s.analyzer.ClassifyAll(ctx, tweets)
	if err != nil {
		// 上下文取消时仍然保留已完成的结果
		log.Printf("⚠️ 分类提前中断: %v", err)
	}
	fmt.Printf("✅ 识别出 %d 条有效发现\n", len(items))

	// 4. 聚合统计
	summary := s.analyzer.Summarize(items)

	// 5. 落盘
	fmt.Printf("💾 正在保存 %d 条结果...\n", len(items))
	if err := s.exporter.Export(ctx, items, summary); err != nil {
		log.Printf("❌ 导出失败: %v", err)
	}

	// 6. 入库 + 推送 (可选步骤，缺配置时静默跳过)
	// 先补推上轮推送失败的存量，再处理本轮的新发现
	s.retryUnnotified(ctx)
	s.persistAndNotify(ctx, items)

	fmt.Println("\n🎯 本轮扫描完成!")
	fmt.Printf("📊 结果: %d 个空投, %d 个初创项目\n", summary.Airdrops, summary.Startups)

	return items, summary, nil
}

// persistAndNotify 把发现入库，并推送尚未通知过的高价值条目
// 任何单条失败只记日志，不影响其他条目
func (s *ScanService) persistAndNotify(ctx context.Context, items []*domain.ClassifiedItem) {
	if s.repo == nil {
		return
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			fmt.Println("⏰ 执行时间过长，提前结束入库和推送阶段")
			return
		default:
		}

		exists, err := s.repo.Exists(ctx, item.TweetID)
		if err != nil {
			log.Printf("❌ 检查 %s 是否已入库时出错，跳过: %v", item.TweetID, err)
			continue
		}
		if exists {
			continue
		}

		if err := s.repo.Save(ctx, item); err != nil {
			log.Printf("❌ 保存 %s 失败: %v", item.TweetID, err)
			continue
		}

		if s.notifier == nil || !item.IsHighValue() {
			continue
		}

		if err := s.notifier.Notify(ctx, item); err != nil {
			log.Printf("❌ 推送 %s 失败: %v", item.TweetID, err)
			continue
		}
		if err := s.repo.MarkAsNotified(ctx, item.TweetID); err != nil {
			log.Printf("⚠️ 标记 %s 为已推送失败: %v", item.TweetID, err)
		}
	}
}

// retryUnnotified 补推已入库但推送失败过的高价值条目
// 推送失败的条目不会被标记，所以每轮扫描开头都有一次重推机会
func (s *ScanService) retryUnnotified(ctx context.Context) {
	if s.repo == nil || s.notifier == nil {
		return
	}

	pending, err := s.repo.GetUnnotified(ctx)
	if err != nil {
		log.Printf("⚠️ 读取待推送条目失败，跳过补推: %v", err)
		return
	}

	for _, item := range pending {
		if !item.IsHighValue() {
			continue
		}
		if err := s.notifier.Notify(ctx, item); err != nil {
			log.Printf("❌ 补推 %s 失败: %v", item.TweetID, err)
			continue
		}
		if err := s.repo.MarkAsNotified(ctx, item.TweetID); err != nil {
			log.Printf("⚠️ 标记 %s 为已推送失败: %v", item.TweetID, err)
		}
	}
}

// Report 读回最近 lastN 份历史导出并重新聚合
func (s *ScanService) Report(lastN int) (*domain.Summary, error) {
	historical, err := s.exporter.LoadHistorical(lastN)
	if err != nil {
		return nil, err
	}
	if len(historical) == 0 {
		return nil, fmt.Errorf("没有可用的历史数据")
	}
	return s.analyzer.Summarize(historical), nil
}
