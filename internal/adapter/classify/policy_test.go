package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"xscanner/internal/domain"

	"github.com/stretchr/testify/assert"
)

// stubClassifier 用函数桩模拟远程/本地分类器
type stubClassifier struct {
	fn func(ctx context.Context, tweet *domain.Tweet) (*domain.ClassifiedItem, error)
}

func (s *stubClassifier) Classify(ctx context.Context, tweet *domain.Tweet) (*domain.ClassifiedItem, error) {
	return s.fn(ctx, tweet)
}

func tweetFixture() *domain.Tweet {
	return &domain.Tweet{ID: "1", Text: "new airdrop, claim now", Likes: 10, Retweets: 5}
}

func itemFixture(t *testing.T, kind domain.Kind, confidence float64) *domain.ClassifiedItem {
	t.Helper()
	item, err := domain.NewClassifiedItem(tweetFixture(), kind, confidence)
	assert.NoError(t, err)
	return item
}

func TestPolicy_RemoteSuccess(t *testing.T) {
	remoteItem := itemFixture(t, domain.KindStartup, 0.95)
	remote := &stubClassifier{fn: func(ctx context.Context, _ *domain.Tweet) (*domain.ClassifiedItem, error) {
		return remoteItem, nil
	}}
	fallback := &stubClassifier{fn: func(context.Context, *domain.Tweet) (*domain.ClassifiedItem, error) {
		t.Fatal("远程成功时不应该落到本地规则")
		return nil, nil
	}}

	item, err := WithFallback(remote, fallback).Classify(context.Background(), tweetFixture())
	assert.NoError(t, err)
	assert.Same(t, remoteItem, item)
}

func TestPolicy_RemoteFailureFallsBack(t *testing.T) {
	fallbackItem := itemFixture(t, domain.KindAirdrop, 0.8)

	remote := &stubClassifier{fn: func(context.Context, *domain.Tweet) (*domain.ClassifiedItem, error) {
		return nil, errors.New("模型超载")
	}}
	fallback := &stubClassifier{fn: func(context.Context, *domain.Tweet) (*domain.ClassifiedItem, error) {
		return fallbackItem, nil
	}}

	item, err := WithFallback(remote, fallback).Classify(context.Background(), tweetFixture())
	assert.NoError(t, err)
	assert.Same(t, fallbackItem, item)
}

// 远程调用必须带超时上限，超时视为普通失败转本地规则
func TestPolicy_RemoteTimeoutFallsBack(t *testing.T) {
	fallbackItem := itemFixture(t, domain.KindAirdrop, 0.8)

	remote := &stubClassifier{fn: func(ctx context.Context, _ *domain.Tweet) (*domain.ClassifiedItem, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fallback := &stubClassifier{fn: func(context.Context, *domain.Tweet) (*domain.ClassifiedItem, error) {
		return fallbackItem, nil
	}}

	policy := WithFallback(remote, fallback)
	policy.timeout = 10 * time.Millisecond

	item, err := policy.Classify(context.Background(), tweetFixture())
	assert.NoError(t, err)
	assert.Same(t, fallbackItem, item)
}

func TestPolicy_RemoteIgnorePassesThrough(t *testing.T) {
	ignoreItem := itemFixture(t, domain.KindIgnore, 0.9)
	remote := &stubClassifier{fn: func(context.Context, *domain.Tweet) (*domain.ClassifiedItem, error) {
		return ignoreItem, nil
	}}
	fallback := &stubClassifier{fn: func(context.Context, *domain.Tweet) (*domain.ClassifiedItem, error) {
		t.Fatal("ignore 是合法结果，不应该触发兜底")
		return nil, nil
	}}

	item, err := WithFallback(remote, fallback).Classify(context.Background(), tweetFixture())
	assert.NoError(t, err)
	assert.Equal(t, domain.KindIgnore, item.Kind)
}
