package votingservice

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
)

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Most Emotional", categoryLabel("most_emotional"))
	assert.Equal(t, "Best Group Photo", categoryLabel("best_group_photo"))
	assert.Equal(t, "Candid", categoryLabel("candid"))
}

func TestExportResultsWorkbook(t *testing.T) {
	eventID := uuid.New()
	photoA := uuid.New()
	photoB := uuid.New()

	votes := &FakeVoteRepo{Votes: []*votedb.Vote{
		{ID: uuid.New(), EventID: eventID, PhotoID: photoA, VoterParticipantID: uuid.New(), Category: votedb.CategoryMostEmotional},
		{ID: uuid.New(), EventID: eventID, PhotoID: photoA, VoterParticipantID: uuid.New(), Category: votedb.CategoryMostEmotional},
		{ID: uuid.New(), EventID: eventID, PhotoID: photoB, VoterParticipantID: uuid.New(), Category: votedb.CategoryBestCandid},
	}}
	engine := newTestEngine(votes, &FakePhotoRepo{})

	data, err := engine.ExportResults(context.Background(), eventID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	assert.ElementsMatch(t, []string{"Winners", "Votes"}, workbook.GetSheetList())

	rows, err := workbook.GetRows("Winners")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per voted category")
	assert.Equal(t, []string{"Category", "Votes", "Winning Photos"}, rows[0])
	assert.Equal(t, "Most Emotional", rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, photoA.String(), rows[1][2])

	tallyRows, err := workbook.GetRows("Votes")
	require.NoError(t, err)
	assert.Len(t, tallyRows, 3)
}

func TestRenderResultsChart(t *testing.T) {
	eventID := uuid.New()
	votes := &FakeVoteRepo{Votes: []*votedb.Vote{
		{ID: uuid.New(), EventID: eventID, PhotoID: uuid.New(), VoterParticipantID: uuid.New(), Category: votedb.CategoryBestDanceMove},
		{ID: uuid.New(), EventID: eventID, PhotoID: uuid.New(), VoterParticipantID: uuid.New(), Category: votedb.CategoryMostMemorable},
	}}
	engine := newTestEngine(votes, &FakePhotoRepo{})

	png, err := engine.RenderResultsChart(context.Background(), eventID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRenderResultsChartWithoutVotes(t *testing.T) {
	engine := newTestEngine(&FakeVoteRepo{}, &FakePhotoRepo{})

	_, err := engine.RenderResultsChart(context.Background(), uuid.New())
	assert.Error(t, err)
}
