package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltixaudit/voltix/internal/recommendation/domain"
	"github.com/voltixaudit/voltix/pkg/db"
)

func TestReplaceClearsPreviousSet(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Recommendation{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	projectID := node.Generate()
	otherID := node.Generate()
	r := Provide()
	ctx := context.Background()

	build := func(project snowflake.ID, n int) []domain.Recommendation {
		out := make([]domain.Recommendation, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, domain.Recommendation{
				ID:            node.Generate(),
				ProjectID:     project,
				AuditResultID: node.Generate(),
				Position:      i,
				Category:      domain.CategoryLighting,
				Title:         "LED",
				Description:   "LED",
				Priority:      domain.PriorityMedium,
				CreatedAt:     time.Now().UTC(),
			})
		}
		return out
	}

	require.NoError(t, r.Replace(ctx, conn, projectID, build(projectID, 5)))
	require.NoError(t, r.Replace(ctx, conn, otherID, build(otherID, 1)))
	require.NoError(t, r.Replace(ctx, conn, projectID, build(projectID, 2)))

	recs, err := r.ListByProject(ctx, conn, projectID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].Position)

	others, err := r.ListByProject(ctx, conn, otherID)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
