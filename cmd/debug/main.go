package main

import (
	"context"
	"fmt"
	"log"

	"xscanner/internal/adapter/analyzer"
	"xscanner/internal/adapter/filter"
	"xscanner/internal/adapter/heuristic"
	"xscanner/internal/adapter/twitter"
)

// 调试入口：不碰任何外部服务，用内置测试数据跑完整的
// 去重 → 本地规则分类 → 聚合 链路，方便快速验证规则改动
func main() {
	ctx := context.Background()

	fmt.Println("🔍 调试模式：本地规则分类内置测试数据")

	tweets := twitter.MockTweets()
	fmt.Printf("📥 载入 %d 条测试推文\n", len(tweets))

	tweetFilter := filter.NewTweetFilter()
	tweets = tweetFilter.DeduplicateByID(tweets, 100)
	fmt.Printf("✅ 去重后剩余 %d 条\n", len(tweets))

	a := analyzer.NewTweetAnalyzer(heuristic.New(), 10)
	items, err := a.ClassifyAll(ctx, tweets)
	if err != nil {
		log.Fatalf("❌ 分类失败: %v", err)
	}

	for i, item := range items {
		name := "Unknown"
		if item.ProjectName != nil {
			name = *item.ProjectName
		}
		fmt.Printf("  发现 #%d: [%s] %s (置信度 %.2f)\n", i+1, item.Kind, name, item.Confidence)
		if item.Chain != nil {
			fmt.Printf("    链: %s\n", *item.Chain)
		}
		if item.FundingAmount != nil {
			fmt.Printf("    融资: %s\n", *item.FundingAmount)
		}
		if len(item.Investors) > 0 {
			fmt.Printf("    投资方: %v\n", item.Investors)
		}
		fmt.Printf("    互动量: %d\n", item.Engagement)
	}

	summary := a.Summarize(items)
	fmt.Printf("\n📊 统计: %d 个空投, %d 个初创项目\n", summary.Airdrops, summary.Startups)
	for _, rc := range summary.TopChains {
		fmt.Printf("  链 %s: %d 次\n", rc.Name, rc.Count)
	}
}
