package heuristic

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"xscanner/internal/domain"
)

// 关键词表全部是有序的：排在前面的优先命中
// airdrop 词表优先于 startup 词表 (两类词同时出现时判为 airdrop)

var airdropTerms = []string{
	"airdrop", "free tokens", "claim", "reward", "distribution", "snapshot",
}

var startupTerms = []string{
	"funding", "series a", "seed", "pre-seed", "raised", "led by",
	"investors", "launch", "announcing",
}

// lookup 是 (匹配子串, 规范化输出) 对
type lookup struct {
	pattern    string
	normalized string
}

// 链按固定优先级匹配，只取第一个命中
var chainTable = []lookup{
	{"ethereum", "Ethereum"},
	{"polygon", "Polygon"},
	{"solana", "Solana"},
	{"arbitrum", "Arbitrum"},
	{"base", "Base"},
	{"optimism", "Optimism"},
	{"avalanche", "Avalanche"},
}

// 赛道分类，只对 startup 生效；没命中时兜底 Infrastructure
// 注意是子串匹配 (沿用老版本行为，"raised" 也会命中 "ai")
var categoryTable = []lookup{
	{"defi", "Defi"},
	{"nft", "Nft"},
	{"gaming", "Gaming"},
	{"dao", "Dao"},
	{"infrastructure", "Infrastructure"},
	{"ai", "AI"},
	{"layer2", "Layer2"},
	{"l2", "L2"},
}

// 已知投资机构，按首次出现顺序收集
var investorTable = []lookup{
	{"sequoia", "Sequoia"},
	{"a16z", "A16Z"},
	{"binance labs", "Binance Labs"},
	{"coinbase ventures", "Coinbase Ventures"},
	{"paradigm", "Paradigm"},
}

var (
	// 金额 + 量级单位。词形单位 (million/billion) 放在单字母前面，
	// 避免 "billion" 被截成 "b"
	fundingPattern = regexp.MustCompile(`\$(\d+(?:\.\d+)?)\s*(million|billion|[mMbB])`)

	urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$_@.&+!*(),/=?#:~-]|%[0-9a-fA-F]{2})+`)
)

// Result 是对一段文本做规则抽取的完整输出
type Result struct {
	Kind          domain.Kind
	Confidence    float64
	ProjectName   *string
	Chain         *string
	Category      *string
	FundingAmount *string
	Investors     []string
	Website       *string
	Description   *string
	KeyFeatures   []string
	Reasoning     string
}

// Extract 对文本做确定性的关键词/模式抽取
// 永远不会失败，Kind 必然是 airdrop / startup / ignore 之一
func Extract(text string) Result {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, airdropTerms):
		return Result{
			Kind:          domain.KindAirdrop,
			Confidence:    0.8,
			ProjectName:   extractProjectName(text),
			Chain:         matchFirst(lower, chainTable),
			Category:      strPtr("Token Distribution"),
			FundingAmount: nil,
			Investors:     []string{},
			Website:       extractWebsite(text),
			Description:   strPtr("Potential airdrop opportunity detected"),
			KeyFeatures:   []string{"Free tokens", "Community rewards"},
			Reasoning:     "Contains airdrop-related keywords",
		}
	case containsAny(lower, startupTerms):
		return Result{
			Kind:          domain.KindStartup,
			Confidence:    0.8,
			ProjectName:   extractProjectName(text),
			Chain:         matchFirst(lower, chainTable),
			Category:      extractCategory(lower),
			FundingAmount: extractFunding(text),
			Investors:     extractInvestors(lower),
			Website:       extractWebsite(text),
			Description:   strPtr("Early-stage crypto startup detected"),
			KeyFeatures:   []string{"Funding announcement", "New project launch"},
			Reasoning:     "Contains startup/funding-related keywords",
		}
	default:
		return Result{
			Kind:        domain.KindIgnore,
			Confidence:  0.9,
			Investors:   []string{},
			KeyFeatures: []string{},
			Reasoning:   "No crypto/startup/airdrop relevance detected",
		}
	}
}

// Extractor 实现 port.Classifier，纯本地规则，无任何外部调用
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Classify 把规则抽取结果装配成 ClassifiedItem
func (e *Extractor) Classify(_ context.Context, tweet *domain.Tweet) (*domain.ClassifiedItem, error) {
	res := Extract(tweet.Text)

	item, err := domain.NewClassifiedItem(tweet, res.Kind, res.Confidence)
	if err != nil {
		return nil, err
	}

	item.ProjectName = res.ProjectName
	item.Chain = res.Chain
	item.Category = res.Category
	item.FundingAmount = res.FundingAmount
	item.Investors = res.Investors
	item.Website = res.Website
	item.Description = res.Description
	item.KeyFeatures = res.KeyFeatures
	item.Reasoning = res.Reasoning

	return item, nil
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// matchFirst 返回表中第一个在文本里出现的规范化值
func matchFirst(lower string, table []lookup) *string {
	for _, entry := range table {
		if strings.Contains(lower, entry.pattern) {
			return strPtr(entry.normalized)
		}
	}
	return nil
}

// extractProjectName 取第一个以大写字母开头、纯字母且长度大于3的词
func extractProjectName(text string) *string {
	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		if len(runes) > 3 && unicode.IsUpper(runes[0]) && allLetters(runes) {
			return strPtr(word)
		}
	}
	return nil
}

func allLetters(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func extractCategory(lower string) *string {
	if c := matchFirst(lower, categoryTable); c != nil {
		return c
	}
	return strPtr("Infrastructure")
}

// extractFunding 把 "$15M" / "$2.5 billion" 这类金额归一化
// 单字母单位转大写，词形单位转小写并去掉空格 (沿用老版本的输出格式)
func extractFunding(text string) *string {
	m := fundingPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	unit := m[2]
	if len(unit) == 1 {
		unit = strings.ToUpper(unit)
	} else {
		unit = strings.ToLower(unit)
	}
	return strPtr("$" + m[1] + unit)
}

func extractInvestors(lower string) []string {
	investors := []string{}
	for _, entry := range investorTable {
		if strings.Contains(lower, entry.pattern) {
			investors = append(investors, entry.normalized)
		}
	}
	return investors
}

func extractWebsite(text string) *string {
	if url := urlPattern.FindString(text); url != "" {
		return strPtr(url)
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
