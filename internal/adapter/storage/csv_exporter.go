package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"xscanner/internal/common"
	"xscanner/internal/domain"
)

// 各类 CSV 的列布局，沿用老版本的文件格式以便下游脚本继续工作
var (
	airdropColumns = []string{
		"project_name", "chain", "category", "confidence", "website",
		"description", "key_features", "author", "author_followers",
		"engagement", "tweet_url", "created_at", "original_text", "reasoning",
	}
	startupColumns = []string{
		"project_name", "chain", "category", "funding_amount", "investors",
		"confidence", "website", "description", "key_features",
		"author", "author_followers", "engagement", "tweet_url",
		"created_at", "original_text", "reasoning",
	}
	combinedColumns = []string{
		"type", "project_name", "chain", "category", "funding_amount",
		"investors", "confidence", "website", "description", "key_features",
		"author", "author_followers", "engagement", "tweet_url",
		"created_at", "original_text", "reasoning",
	}
)

// CSVExporter 实现 port.Exporter
// 每次扫描产出 airdrops_/startups_/combined_ 三份 CSV + summary JSON
type CSVExporter struct {
	basePath string
	nowFunc  func() time.Time
}

// NewCSVExporter 创建导出器，目录不存在时自动创建
func NewCSVExporter(basePath string) (*CSVExporter, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, common.WrapError(common.ErrCodeExport, "创建输出目录失败", err)
	}
	return &CSVExporter{basePath: basePath, nowFunc: time.Now}, nil
}

// OutputPath 返回输出目录的绝对路径
func (s *CSVExporter) OutputPath() string {
	abs, err := filepath.Abs(s.basePath)
	if err != nil {
		return s.basePath
	}
	return abs
}

// Export 把分类结果和统计落盘
// 没有数据时只提示不报错
func (s *CSVExporter) Export(_ context.Context, items []*domain.ClassifiedItem, summary *domain.Summary) error {
	if len(items) == 0 {
		fmt.Println("⚠️ 没有数据可保存")
		return nil
	}

	timestamp := s.nowFunc().Format("20060102_150405")

	var airdrops, startups []*domain.ClassifiedItem
	for _, item := range items {
		switch item.Kind {
		case domain.KindAirdrop:
			airdrops = append(airdrops, item)
		case domain.KindStartup:
			startups = append(startups, item)
		}
	}

	if len(airdrops) > 0 {
		path := filepath.Join(s.basePath, "airdrops_"+timestamp+".csv")
		if err := s.writeCSV(airdrops, path, airdropColumns); err != nil {
			return err
		}
		fmt.Printf("💰 已保存 %d 条空投到 %s\n", len(airdrops), path)
	}

	if len(startups) > 0 {
		path := filepath.Join(s.basePath, "startups_"+timestamp+".csv")
		if err := s.writeCSV(startups, path, startupColumns); err != nil {
			return err
		}
		fmt.Printf("🚀 已保存 %d 条初创项目到 %s\n", len(startups), path)
	}

	combinedPath := filepath.Join(s.basePath, "combined_"+timestamp+".csv")
	if err := s.writeCSV(items, combinedPath, combinedColumns); err != nil {
		return err
	}
	fmt.Printf("📊 已保存 %d 条汇总结果到 %s\n", len(items), combinedPath)

	if summary != nil {
		if err := s.writeSummary(summary, timestamp); err != nil {
			return err
		}
	}

	return nil
}

func (s *CSVExporter) writeCSV(items []*domain.ClassifiedItem, path string, columns []string) error {
	file, err := os.Create(path)
	if err != nil {
		return common.WrapError(common.ErrCodeExport, "创建 CSV 文件失败", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return common.WrapError(common.ErrCodeExport, "写入 CSV 表头失败", err)
	}

	for _, item := range items {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = columnValue(item, col)
		}
		if err := w.Write(row); err != nil {
			return common.WrapError(common.ErrCodeExport, "写入 CSV 行失败", err)
		}
	}

	w.Flush()
	return w.Error()
}

// columnValue 把字段拍平成 CSV 单元格
// 列表用 "; " 连接，nil 和空列表都渲染成空串
func columnValue(item *domain.ClassifiedItem, column string) string {
	switch column {
	case "type":
		return string(item.Kind)
	case "project_name":
		return deref(item.ProjectName)
	case "chain":
		return deref(item.Chain)
	case "category":
		return deref(item.Category)
	case "funding_amount":
		return deref(item.FundingAmount)
	case "investors":
		return strings.Join(item.Investors, "; ")
	case "confidence":
		return strconv.FormatFloat(item.Confidence, 'g', -1, 64)
	case "website":
		return deref(item.Website)
	case "description":
		return deref(item.Description)
	case "key_features":
		return strings.Join(item.KeyFeatures, "; ")
	case "author":
		return item.Author
	case "author_followers":
		return strconv.Itoa(item.AuthorFollowers)
	case "engagement":
		return strconv.Itoa(item.Engagement)
	case "tweet_url":
		return item.TweetURL
	case "created_at":
		return item.CreatedAt.Format(time.RFC3339)
	case "original_text":
		return item.OriginalText
	case "reasoning":
		return item.Reasoning
	default:
		return ""
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *CSVExporter) writeSummary(summary *domain.Summary, timestamp string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return common.WrapError(common.ErrCodeExport, "序列化统计失败", err)
	}

	path := filepath.Join(s.basePath, "summary_"+timestamp+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return common.WrapError(common.ErrCodeExport, "写入统计文件失败", err)
	}
	return nil
}

// LoadHistorical 读回最近 N 份 combined CSV，供报告模式重新聚合
// 单个文件解析失败只记日志跳过
func (s *CSVExporter) LoadHistorical(lastN int) ([]*domain.ClassifiedItem, error) {
	pattern := filepath.Join(s.basePath, "combined_*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeExport, "检索历史文件失败", err)
	}
	// Glob 结果按文件名排序，时间戳命名保证了时间顺序
	if lastN > 0 && len(files) > lastN {
		files = files[len(files)-lastN:]
	}

	var items []*domain.ClassifiedItem
	for _, path := range files {
		loaded, err := readCombinedCSV(path)
		if err != nil {
			log.Printf("⚠️ 读取历史文件 %s 失败，已跳过: %v", path, err)
			continue
		}
		items = append(items, loaded...)
	}

	return items, nil
}

func readCombinedCSV(path string) ([]*domain.ClassifiedItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	get := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	items := make([]*domain.ClassifiedItem, 0, len(records)-1)
	for _, row := range records[1:] {
		confidence, _ := strconv.ParseFloat(get(row, "confidence"), 64)
		followers, _ := strconv.Atoi(get(row, "author_followers"))
		engagement, _ := strconv.Atoi(get(row, "engagement"))
		createdAt, _ := time.Parse(time.RFC3339, get(row, "created_at"))

		items = append(items, &domain.ClassifiedItem{
			Kind:            domain.Kind(get(row, "type")),
			Confidence:      confidence,
			ProjectName:     ptrOrNil(get(row, "project_name")),
			Chain:           ptrOrNil(get(row, "chain")),
			Category:        ptrOrNil(get(row, "category")),
			FundingAmount:   ptrOrNil(get(row, "funding_amount")),
			Investors:       splitList(get(row, "investors")),
			Website:         ptrOrNil(get(row, "website")),
			Description:     ptrOrNil(get(row, "description")),
			KeyFeatures:     splitList(get(row, "key_features")),
			Author:          get(row, "author"),
			AuthorFollowers: followers,
			Engagement:      engagement,
			TweetURL:        get(row, "tweet_url"),
			CreatedAt:       createdAt,
			OriginalText:    get(row, "original_text"),
			Reasoning:       get(row, "reasoning"),
		})
	}

	return items, nil
}

// CSV 的扁平格式区分不了 nil 和空串，读回时空串一律当作缺失
func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, "; ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteReport 根据聚合统计渲染 Markdown 报告
func (s *CSVExporter) WriteReport(summary *domain.Summary, lastN int) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# XScanner Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.nowFunc().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Data Period: Last %d scans\n\n", lastN)

	fmt.Fprintf(&b, "## Summary\n")
	fmt.Fprintf(&b, "- **Total Opportunities**: %d\n", summary.TotalItems)
	fmt.Fprintf(&b, "- **Airdrops**: %d\n", summary.Airdrops)
	fmt.Fprintf(&b, "- **Startups**: %d\n\n", summary.Startups)

	fmt.Fprintf(&b, "## Top Chains\n")
	for _, rc := range summary.TopChains {
		fmt.Fprintf(&b, "- %s: %d\n", rc.Name, rc.Count)
	}

	fmt.Fprintf(&b, "\n## Top Categories\n")
	for _, rc := range summary.TopCategories {
		fmt.Fprintf(&b, "- %s: %d\n", rc.Name, rc.Count)
	}

	fmt.Fprintf(&b, "\n## Engagement Distribution\n")
	fmt.Fprintf(&b, "- High (>500): %d\n", summary.Engagement.High)
	fmt.Fprintf(&b, "- Medium (100-500): %d\n", summary.Engagement.Medium)
	fmt.Fprintf(&b, "- Low (<100): %d\n", summary.Engagement.Low)

	path := filepath.Join(s.basePath, "report_"+s.nowFunc().Format("20060102")+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", common.WrapError(common.ErrCodeExport, "写入报告失败", err)
	}

	return path, nil
}
