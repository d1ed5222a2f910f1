package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/database/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func TestConsensusServiceEvaluate(t *testing.T) {
	db := openServiceTestDB(t)
	tenant := testutil.MustCreateTenant(t, db, "acme")
	dealer := testutil.MustCreateDealership(t, db, tenant.ID, "sunsetford.com")

	platforms := []ai.Platform{
		ai.NewStaticPlatform("chatgpt", "Sunset Ford has great prices and friendly service"),
		ai.NewStaticPlatform("gemini", "Sunset Ford has great prices and friendly service"),
		ai.NewFailingPlatform("perplexity", errors.New("quota exceeded")),
	}
	svc, err := NewConsensusService(db, newTestCache(t), platforms, ConsensusConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	report, err := svc.Evaluate(ctx, dealer.ID, "best ford dealer in naples")
	require.NoError(t, err)
	require.False(t, report.Cached)
	require.False(t, report.Insufficient)
	require.EqualValues(t, 100, report.Score)
	require.Equal(t, []string{"chatgpt", "gemini"}, report.Platforms)
	require.Len(t, report.Answers, 3)
	require.Equal(t, "perplexity", report.Answers[2].Platform)
	require.Equal(t, "quota exceeded", report.Answers[2].Error)

	cached, err := svc.Evaluate(ctx, dealer.ID, "Best Ford dealer in Naples")
	require.NoError(t, err)
	require.True(t, cached.Cached)

	var stored int64
	require.NoError(t, db.Model(&models.Score{}).Where("kind = ?", models.ScoreKindConsensus).Count(&stored).Error)
	require.EqualValues(t, 1, stored)
}

func TestConsensusServiceInsufficientAnswers(t *testing.T) {
	db := openServiceTestDB(t)
	tenant := testutil.MustCreateTenant(t, db, "acme")
	dealer := testutil.MustCreateDealership(t, db, tenant.ID, "sunsetford.com")

	svc, err := NewConsensusService(db, nil, []ai.Platform{
		ai.NewStaticPlatform("chatgpt", "Sunset Ford is fine"),
		ai.NewFailingPlatform("gemini", errors.New("timeout")),
	}, ConsensusConfig{})
	require.NoError(t, err)

	report, err := svc.Evaluate(context.Background(), dealer.ID, "")
	require.NoError(t, err)
	require.True(t, report.Insufficient)
	require.Zero(t, report.Score)
}

func TestConsensusServiceCapsPlatforms(t *testing.T) {
	db := openServiceTestDB(t)
	_, err := NewConsensusService(db, nil, nil, ConsensusConfig{})
	require.ErrorIs(t, err, ErrNoPlatforms)

	svc, err := NewConsensusService(db, nil, ai.MockPlatforms([]string{"chatgpt", "gemini", "perplexity", "copilot", "extra"}), ConsensusConfig{})
	require.NoError(t, err)
	require.Equal(t, []string{"chatgpt", "gemini", "perplexity", "copilot"}, svc.Platforms())
}
