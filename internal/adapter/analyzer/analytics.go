package analyzer

import (
	"sort"

	"xscanner/internal/domain"
)

// 排行榜最多保留的条目数
const topLimit = 5

// Summarize 对一次运行的分类结果做聚合统计
// 纯函数：只依赖传入的 items，不携带任何跨运行状态
func (a *TweetAnalyzer) Summarize(items []*domain.ClassifiedItem) *domain.Summary {
	summary := &domain.Summary{
		ScanTime:      a.nowFunc(),
		TotalItems:    len(items),
		TopChains:     []domain.RankedCount{},
		TopCategories: []domain.RankedCount{},
	}

	chains := newCounter()
	categories := newCounter()
	var funded []*domain.ClassifiedItem

	for _, item := range items {
		switch item.Kind {
		case domain.KindAirdrop:
			summary.Airdrops++
		case domain.KindStartup:
			summary.Startups++
		}

		if item.Chain != nil && *item.Chain != "" {
			chains.add(*item.Chain)
		}
		if item.Category != nil && *item.Category != "" {
			categories.add(*item.Category)
		}

		switch {
		case item.Confidence > 0.8:
			summary.Confidence.High++
		case item.Confidence > 0.6:
			summary.Confidence.Medium++
		default:
			summary.Confidence.Low++
		}

		switch {
		case item.Engagement > 500:
			summary.Engagement.High++
		case item.Engagement > 100:
			summary.Engagement.Medium++
		default:
			summary.Engagement.Low++
		}

		if item.Engagement > 100 {
			summary.HighEngagement++
		}
		if item.AuthorFollowers > 10000 {
			summary.VerifiedAuthors++
		}

		if item.FundingAmount != nil && *item.FundingAmount != "" {
			funded = append(funded, item)
		}
	}

	summary.TopChains = chains.top(topLimit)
	summary.TopCategories = categories.top(topLimit)
	summary.Funding = analyzeFunding(funded)

	return summary
}

// analyzeFunding 只统计带融资金额的条目
// 没有任何融资条目时不报平均置信度
func analyzeFunding(funded []*domain.ClassifiedItem) domain.FundingInsight {
	if len(funded) == 0 {
		return domain.FundingInsight{TotalFunded: 0}
	}

	var confidenceSum float64
	investors := newCounter()
	for _, item := range funded {
		confidenceSum += item.Confidence
		for _, investor := range item.Investors {
			if investor != "" {
				investors.add(investor)
			}
		}
	}

	return domain.FundingInsight{
		TotalFunded:   len(funded),
		AvgConfidence: confidenceSum / float64(len(funded)),
		TopInvestors:  investors.top(topLimit),
	}
}

// counter 统计出现次数并记住首次出现顺序
// 排序用稳定排序，保证同票按首次出现顺序排列
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(name string) {
	if _, seen := c.counts[name]; !seen {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) top(n int) []domain.RankedCount {
	ranked := make([]domain.RankedCount, 0, len(c.order))
	for _, name := range c.order {
		ranked = append(ranked, domain.RankedCount{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
