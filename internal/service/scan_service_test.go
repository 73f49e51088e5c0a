package service

import (
	"context"
	"errors"
	"testing"

	"xscanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockSource struct {
	mock.Mock
}

func (m *MockSource) FetchTweets(ctx context.Context) ([]*domain.Tweet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Tweet), args.Error(1)
}

type MockFilter struct {
	mock.Mock
}

func (m *MockFilter) DeduplicateByID(tweets []*domain.Tweet, maxCount int) []*domain.Tweet {
	args := m.Called(tweets, maxCount)
	return args.Get(0).([]*domain.Tweet)
}

func (m *MockFilter) FilterByCreatedAt(tweets []*domain.Tweet, maxDaysOld int) []*domain.Tweet {
	args := m.Called(tweets, maxDaysOld)
	return args.Get(0).([]*domain.Tweet)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) ClassifyAll(ctx context.Context, tweets []*domain.Tweet) ([]*domain.ClassifiedItem, error) {
	args := m.Called(ctx, tweets)
	return args.Get(0).([]*domain.ClassifiedItem), args.Error(1)
}

func (m *MockAnalyzer) Summarize(items []*domain.ClassifiedItem) *domain.Summary {
	args := m.Called(items)
	return args.Get(0).(*domain.Summary)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, items []*domain.ClassifiedItem, summary *domain.Summary) error {
	args := m.Called(ctx, items, summary)
	return args.Error(0)
}

func (m *MockExporter) LoadHistorical(lastN int) ([]*domain.ClassifiedItem, error) {
	args := m.Called(lastN)
	return args.Get(0).([]*domain.ClassifiedItem), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, item *domain.ClassifiedItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRepository) Exists(ctx context.Context, tweetID string) (bool, error) {
	args := m.Called(ctx, tweetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetRecent(ctx context.Context, limit int) ([]*domain.ClassifiedItem, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*domain.ClassifiedItem), args.Error(1)
}

func (m *MockRepository) GetUnnotified(ctx context.Context) ([]*domain.ClassifiedItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.ClassifiedItem), args.Error(1)
}

func (m *MockRepository) MarkAsNotified(ctx context.Context, tweetID string) error {
	args := m.Called(ctx, tweetID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, item *domain.ClassifiedItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func sampleTweets() []*domain.Tweet {
	return []*domain.Tweet{
		{ID: "1", Text: "airdrop live", Likes: 892, Retweets: 245},
		{ID: "2", Text: "raised $15M", Likes: 423, Retweets: 156},
	}
}

func sampleItem(t *testing.T, id string, kind domain.Kind, confidence float64, engagement int) *domain.ClassifiedItem {
	t.Helper()
	item, err := domain.NewClassifiedItem(&domain.Tweet{ID: id, Text: "tweet"}, kind, confidence)
	assert.NoError(t, err)
	item.Engagement = engagement
	return item
}

func TestScanService_Scan_HappyPath(t *testing.T) {
	tweets := sampleTweets()
	items := []*domain.ClassifiedItem{
		sampleItem(t, "1", domain.KindAirdrop, 0.8, 1137),
		sampleItem(t, "2", domain.KindStartup, 0.92, 579),
	}
	summary := &domain.Summary{TotalItems: 2, Airdrops: 1, Startups: 1}

	source := new(MockSource)
	filter := new(MockFilter)
	analyzer := new(MockAnalyzer)
	exporter := new(MockExporter)

	source.On("FetchTweets", mock.Anything).Return(tweets, nil)
	filter.On("FilterByCreatedAt", tweets, 1).Return(tweets)
	filter.On("DeduplicateByID", tweets, 100).Return(tweets)
	analyzer.On("ClassifyAll", mock.Anything, tweets).Return(items, nil)
	analyzer.On("Summarize", items).Return(summary)
	exporter.On("Export", mock.Anything, items, summary).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, nil, nil, 100, 1)

	gotItems, gotSummary, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, items, gotItems)
	assert.Equal(t, summary, gotSummary)

	source.AssertExpectations(t)
	filter.AssertExpectations(t)
	analyzer.AssertExpectations(t)
	exporter.AssertExpectations(t)
}

func TestScanService_Scan_SourceError(t *testing.T) {
	source := new(MockSource)
	source.On("FetchTweets", mock.Anything).Return([]*domain.Tweet(nil), errors.New("API 限流"))

	svc := NewScanService(source, new(MockFilter), new(MockAnalyzer), new(MockExporter), nil, nil, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "抓取推文失败")
}

func TestScanService_Scan_NoTweets(t *testing.T) {
	source := new(MockSource)
	source.On("FetchTweets", mock.Anything).Return([]*domain.Tweet{}, nil)

	analyzer := new(MockAnalyzer)
	svc := NewScanService(source, new(MockFilter), analyzer, new(MockExporter), nil, nil, 100, 1)

	items, summary, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, items)
	assert.Nil(t, summary)
	// 没有推文时不应触发分类
	analyzer.AssertNotCalled(t, "ClassifyAll", mock.Anything, mock.Anything)
}

// daysBack = 0 时跳过时效过滤
func TestScanService_Scan_SkipsRecencyFilter(t *testing.T) {
	tweets := sampleTweets()
	items := []*domain.ClassifiedItem{}
	summary := &domain.Summary{}

	source := new(MockSource)
	filter := new(MockFilter)
	analyzer := new(MockAnalyzer)
	exporter := new(MockExporter)

	source.On("FetchTweets", mock.Anything).Return(tweets, nil)
	filter.On("DeduplicateByID", tweets, 50).Return(tweets)
	analyzer.On("ClassifyAll", mock.Anything, tweets).Return(items, nil)
	analyzer.On("Summarize", items).Return(summary)
	exporter.On("Export", mock.Anything, items, summary).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, nil, nil, 50, 0)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	filter.AssertNotCalled(t, "FilterByCreatedAt", mock.Anything, mock.Anything)
}

// 分类中断时保留已完成的结果继续走完流水线
func TestScanService_Scan_PartialClassification(t *testing.T) {
	tweets := sampleTweets()
	partial := []*domain.ClassifiedItem{sampleItem(t, "1", domain.KindAirdrop, 0.8, 1137)}
	summary := &domain.Summary{TotalItems: 1, Airdrops: 1}

	source := new(MockSource)
	filter := new(MockFilter)
	analyzer := new(MockAnalyzer)
	exporter := new(MockExporter)

	source.On("FetchTweets", mock.Anything).Return(tweets, nil)
	filter.On("FilterByCreatedAt", tweets, 1).Return(tweets)
	filter.On("DeduplicateByID", tweets, 100).Return(tweets)
	analyzer.On("ClassifyAll", mock.Anything, tweets).Return(partial, context.DeadlineExceeded)
	analyzer.On("Summarize", partial).Return(summary)
	exporter.On("Export", mock.Anything, partial, summary).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, nil, nil, 100, 1)

	gotItems, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, partial, gotItems)
}

// 导出失败只记日志，扫描仍然成功
func TestScanService_Scan_ExportErrorTolerated(t *testing.T) {
	tweets := sampleTweets()
	items := []*domain.ClassifiedItem{sampleItem(t, "1", domain.KindAirdrop, 0.8, 1137)}
	summary := &domain.Summary{TotalItems: 1, Airdrops: 1}

	source := new(MockSource)
	filter := new(MockFilter)
	analyzer := new(MockAnalyzer)
	exporter := new(MockExporter)

	source.On("FetchTweets", mock.Anything).Return(tweets, nil)
	filter.On("FilterByCreatedAt", tweets, 1).Return(tweets)
	filter.On("DeduplicateByID", tweets, 100).Return(tweets)
	analyzer.On("ClassifyAll", mock.Anything, tweets).Return(items, nil)
	analyzer.On("Summarize", items).Return(summary)
	exporter.On("Export", mock.Anything, items, summary).Return(errors.New("磁盘已满"))

	svc := NewScanService(source, filter, analyzer, exporter, nil, nil, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
}

func setupPersistScan(t *testing.T, items []*domain.ClassifiedItem) (*MockSource, *MockFilter, *MockAnalyzer, *MockExporter) {
	t.Helper()
	tweets := sampleTweets()
	summary := &domain.Summary{TotalItems: len(items)}

	source := new(MockSource)
	filter := new(MockFilter)
	analyzer := new(MockAnalyzer)
	exporter := new(MockExporter)

	source.On("FetchTweets", mock.Anything).Return(tweets, nil)
	filter.On("FilterByCreatedAt", tweets, 1).Return(tweets)
	filter.On("DeduplicateByID", tweets, 100).Return(tweets)
	analyzer.On("ClassifyAll", mock.Anything, tweets).Return(items, nil)
	analyzer.On("Summarize", items).Return(summary)
	exporter.On("Export", mock.Anything, items, summary).Return(nil)

	return source, filter, analyzer, exporter
}

func TestScanService_PersistAndNotify_HighValue(t *testing.T) {
	highValue := sampleItem(t, "4", domain.KindStartup, 0.95, 1645)
	lowValue := sampleItem(t, "3", domain.KindAirdrop, 0.8, 323)
	items := []*domain.ClassifiedItem{highValue, lowValue}

	source, filter, analyzer, exporter := setupPersistScan(t, items)

	repo := new(MockRepository)
	notifier := new(MockNotifier)

	// 本轮没有历史欠账
	repo.On("GetUnnotified", mock.Anything).Return([]*domain.ClassifiedItem{}, nil)
	repo.On("Exists", mock.Anything, "4").Return(false, nil)
	repo.On("Exists", mock.Anything, "3").Return(false, nil)
	repo.On("Save", mock.Anything, highValue).Return(nil)
	repo.On("Save", mock.Anything, lowValue).Return(nil)
	// 只推送高价值条目
	notifier.On("Notify", mock.Anything, highValue).Return(nil)
	repo.On("MarkAsNotified", mock.Anything, "4").Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, repo, notifier, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, lowValue)
}

// 已入库的推文跳过保存和推送 (跨运行防重)
func TestScanService_PersistAndNotify_SkipsExisting(t *testing.T) {
	item := sampleItem(t, "1", domain.KindAirdrop, 0.9, 1137)
	items := []*domain.ClassifiedItem{item}

	source, filter, analyzer, exporter := setupPersistScan(t, items)

	repo := new(MockRepository)
	notifier := new(MockNotifier)
	repo.On("GetUnnotified", mock.Anything).Return([]*domain.ClassifiedItem{}, nil)
	repo.On("Exists", mock.Anything, "1").Return(true, nil)

	svc := NewScanService(source, filter, analyzer, exporter, repo, notifier, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

// 单条入库失败不影响其他条目
func TestScanService_PersistAndNotify_SaveErrorIsolated(t *testing.T) {
	first := sampleItem(t, "1", domain.KindAirdrop, 0.8, 100)
	second := sampleItem(t, "2", domain.KindStartup, 0.8, 100)
	items := []*domain.ClassifiedItem{first, second}

	source, filter, analyzer, exporter := setupPersistScan(t, items)

	repo := new(MockRepository)
	repo.On("Exists", mock.Anything, "1").Return(false, nil)
	repo.On("Exists", mock.Anything, "2").Return(false, nil)
	repo.On("Save", mock.Anything, first).Return(errors.New("连接断开"))
	repo.On("Save", mock.Anything, second).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, repo, nil, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

// 推送失败时不标记已推送，下轮还有机会重推
func TestScanService_PersistAndNotify_NotifyErrorSkipsMark(t *testing.T) {
	item := sampleItem(t, "4", domain.KindStartup, 0.95, 1645)
	items := []*domain.ClassifiedItem{item}

	source, filter, analyzer, exporter := setupPersistScan(t, items)

	repo := new(MockRepository)
	notifier := new(MockNotifier)
	repo.On("GetUnnotified", mock.Anything).Return([]*domain.ClassifiedItem{}, nil)
	repo.On("Exists", mock.Anything, "4").Return(false, nil)
	repo.On("Save", mock.Anything, item).Return(nil)
	notifier.On("Notify", mock.Anything, item).Return(errors.New("Webhook 不可用"))

	svc := NewScanService(source, filter, analyzer, exporter, repo, notifier, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "MarkAsNotified", mock.Anything, mock.Anything)
}

// 上轮推送失败的高价值存量在本轮开头补推并标记
func TestScanService_RetryUnnotified_PushesBacklog(t *testing.T) {
	items := []*domain.ClassifiedItem{sampleItem(t, "9", domain.KindAirdrop, 0.8, 50)}
	source, filter, analyzer, exporter := setupPersistScan(t, items)

	backlog := sampleItem(t, "7", domain.KindStartup, 0.95, 1645) // 上轮 Notify 失败
	lowValue := sampleItem(t, "8", domain.KindAirdrop, 0.7, 60)   // 入库了但不够推送门槛

	repo := new(MockRepository)
	notifier := new(MockNotifier)
	repo.On("GetUnnotified", mock.Anything).Return([]*domain.ClassifiedItem{backlog, lowValue}, nil)
	notifier.On("Notify", mock.Anything, backlog).Return(nil)
	repo.On("MarkAsNotified", mock.Anything, "7").Return(nil)
	repo.On("Exists", mock.Anything, "9").Return(false, nil)
	repo.On("Save", mock.Anything, items[0]).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, repo, notifier, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
	// 低价值存量留在库里，不推送也不标记
	notifier.AssertNotCalled(t, "Notify", mock.Anything, lowValue)
	repo.AssertNotCalled(t, "MarkAsNotified", mock.Anything, "8")
}

// 读取存量失败只跳过补推，不影响本轮入库
func TestScanService_RetryUnnotified_LoadErrorTolerated(t *testing.T) {
	items := []*domain.ClassifiedItem{sampleItem(t, "1", domain.KindAirdrop, 0.8, 50)}
	source, filter, analyzer, exporter := setupPersistScan(t, items)

	repo := new(MockRepository)
	notifier := new(MockNotifier)
	repo.On("GetUnnotified", mock.Anything).Return([]*domain.ClassifiedItem(nil), errors.New("连接断开"))
	repo.On("Exists", mock.Anything, "1").Return(false, nil)
	repo.On("Save", mock.Anything, items[0]).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, repo, notifier, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

// 没配置推送渠道时不做存量查询
func TestScanService_RetryUnnotified_SkippedWithoutNotifier(t *testing.T) {
	items := []*domain.ClassifiedItem{sampleItem(t, "1", domain.KindAirdrop, 0.8, 50)}
	source, filter, analyzer, exporter := setupPersistScan(t, items)

	repo := new(MockRepository)
	repo.On("Exists", mock.Anything, "1").Return(false, nil)
	repo.On("Save", mock.Anything, items[0]).Return(nil)

	svc := NewScanService(source, filter, analyzer, exporter, repo, nil, 100, 1)

	_, _, err := svc.Scan(context.Background())
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GetUnnotified", mock.Anything)
}

func TestScanService_Report(t *testing.T) {
	historical := []*domain.ClassifiedItem{
		sampleItem(t, "1", domain.KindAirdrop, 0.8, 100),
	}
	summary := &domain.Summary{TotalItems: 1, Airdrops: 1}

	exporter := new(MockExporter)
	analyzer := new(MockAnalyzer)
	exporter.On("LoadHistorical", 7).Return(historical, nil)
	analyzer.On("Summarize", historical).Return(summary)

	svc := NewScanService(nil, nil, analyzer, exporter, nil, nil, 100, 1)

	got, err := svc.Report(7)
	assert.NoError(t, err)
	assert.Equal(t, summary, got)
}

func TestScanService_Report_NoHistory(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("LoadHistorical", 7).Return([]*domain.ClassifiedItem{}, nil)

	svc := NewScanService(nil, nil, new(MockAnalyzer), exporter, nil, nil, 100, 1)

	_, err := svc.Report(7)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "没有可用的历史数据")
}

func TestScanService_Report_LoadError(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("LoadHistorical", 7).Return([]*domain.ClassifiedItem(nil), errors.New("目录不存在"))

	svc := NewScanService(nil, nil, new(MockAnalyzer), exporter, nil, nil, 100, 1)

	_, err := svc.Report(7)
	assert.Error(t, err)
}
