package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xscanner/internal/adapter/analyzer"
	"xscanner/internal/adapter/classify"
	"xscanner/internal/adapter/feishu"
	"xscanner/internal/adapter/filter"
	"xscanner/internal/adapter/gemini"
	"xscanner/internal/adapter/heuristic"
	"xscanner/internal/adapter/repository"
	"xscanner/internal/adapter/storage"
	"xscanner/internal/adapter/twitter"
	"xscanner/internal/config"
	"xscanner/internal/port"
	"xscanner/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. 命令行参数
	mode := flag.String("mode", "scan", "运行模式: scan (扫描) / ask (提问) / report (报告)")
	query := flag.String("q", "", "提问内容 (仅在 ask 模式下有效)")
	configPath := flag.String("config", "config/settings.yaml", "配置文件路径")
	interval := flag.Int("interval", 0, "定时扫描间隔（分钟），0表示只执行一次")
	lastN := flag.Int("last", 7, "report 模式回溯的历史扫描份数")
	flag.Parse()

	// 2. 加载配置 (.env 里的密钥 + YAML 设置)
	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}

	switch *mode {
	case "scan":
		if *interval > 0 {
			runScheduledScan(cfg, *interval)
		} else {
			runScan(cfg)
		}
	case "ask":
		runAsk(cfg, *query)
	case "report":
		runReport(cfg, *lastN)
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=scan / ask / report")
	}
}

// buildClassifier 按配置选定分类策略：
// 配置了远程凭证 → 远程优先 + 本地规则兜底；否则全部走本地规则
func buildClassifier(ctx context.Context, cfg *config.Config) (port.Classifier, error) {
	local := heuristic.New()

	if !cfg.AI.Configured() {
		fmt.Println("⚠️ 未配置 GEMINI_API_KEY，全部使用本地规则分类")
		return local, nil
	}

	remote, err := gemini.NewClassifier(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("AI 初始化失败: %w", err)
	}
	return classify.WithFallback(remote, local), nil
}

// buildScanService 装配整条流水线
func buildScanService(ctx context.Context, cfg *config.Config) (*service.ScanService, error) {
	classifier, err := buildClassifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := storage.NewCSVExporter(cfg.Storage.CSVPath)
	if err != nil {
		return nil, err
	}

	// 数据库和推送都是可选项
	var repo port.Repository
	if cfg.Database.DSN != "" {
		pg, err := repository.NewPostgresRepo(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("DB 初始化失败: %w", err)
		}
		repo = pg
	} else {
		log.Println("⚠️ 未配置 DATABASE_DSN，跳过入库和推送")
	}

	var notifier port.Notifier
	if cfg.Notify.FeishuWebhook != "" {
		notifier = feishu.NewNotifier(cfg.Notify.FeishuWebhook)
	}

	return service.NewScanService(
		twitter.NewFetcher(cfg.Twitter),
		filter.NewTweetFilter(),
		analyzer.NewTweetAnalyzer(classifier, cfg.Storage.BatchSize),
		exporter,
		repo,
		notifier,
		cfg.Twitter.MaxTweets,
		cfg.Twitter.DaysBack,
	), nil
}

// runScan 执行一次扫描周期
func runScan(cfg *config.Config) {
	// 为整个扫描周期设置超时时间(10分钟)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	svc, err := buildScanService(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ 初始化失败: %v", err)
	}

	if _, _, err := svc.Scan(ctx); err != nil {
		log.Printf("❌ 扫描失败: %v", err)
	}
}

// runScheduledScan 定时扫描，收到 SIGINT/SIGTERM 时优雅退出
func runScheduledScan(cfg *config.Config, interval int) {
	fmt.Printf("⏰ 定时扫描已启动，每 %d 分钟执行一次\n", interval)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次
	runScan(cfg)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %dm", interval), func() {
		runScan(cfg)
	}); err != nil {
		log.Fatalf("❌ 定时任务注册失败: %v", err)
	}
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 收到停止信号，正在退出...")
	<-c.Stop().Done()
}

// runAsk 对已入库的发现做自然语言问答
func runAsk(cfg *config.Config, query string) {
	if query == "" {
		fmt.Println("⚠️ 请输入你的问题，用大白话就行。")
		fmt.Println("例如: -q '最近 Polygon 上有哪些值得关注的空投'")
		return
	}
	if !cfg.AI.Configured() {
		fmt.Println("❌ ask 模式需要配置 GEMINI_API_KEY")
		return
	}
	if cfg.Database.DSN == "" {
		fmt.Println("❌ ask 模式需要配置 DATABASE_DSN")
		return
	}

	ctx := context.Background()

	repo, err := repository.NewPostgresRepo(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}
	assistant, err := gemini.NewClassifier(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	if err != nil {
		log.Fatalf("❌ AI 初始化失败: %v", err)
	}

	fmt.Println("🤖 正在读取数据库，并进行 AI 语义分析...")
	candidates, err := repo.GetRecent(ctx, 100)
	if err != nil {
		log.Fatalf("读取数据库失败: %v", err)
	}
	if len(candidates) == 0 {
		fmt.Println("📭 数据库是空的。请先运行 -mode=scan 抓取一些发现！")
		return
	}

	fmt.Printf("📚 已加载 %d 条发现作为上下文，AI 正在匹配你的需求: [%s] ...\n", len(candidates), query)
	answer, err := assistant.SemanticSearch(ctx, candidates, query)
	if err != nil {
		log.Printf("❌ AI 分析失败: %v", err)
		return
	}

	fmt.Println("\n================ [ 智能分析结果 ] ================")
	fmt.Println(answer)
	fmt.Println("==================================================")
}

// runReport 重新聚合历史导出并生成 Markdown 报告
func runReport(cfg *config.Config, lastN int) {
	exporter, err := storage.NewCSVExporter(cfg.Storage.CSVPath)
	if err != nil {
		log.Fatalf("❌ 初始化失败: %v", err)
	}

	historical, err := exporter.LoadHistorical(lastN)
	if err != nil {
		log.Fatalf("❌ 读取历史数据失败: %v", err)
	}
	if len(historical) == 0 {
		fmt.Println("📭 没有历史数据，请先运行 -mode=scan")
		return
	}

	a := analyzer.NewTweetAnalyzer(heuristic.New(), cfg.Storage.BatchSize)
	summary := a.Summarize(historical)

	path, err := exporter.WriteReport(summary, lastN)
	if err != nil {
		log.Fatalf("❌ 报告生成失败: %v", err)
	}
	fmt.Printf("📝 报告已生成: %s\n", path)
}
