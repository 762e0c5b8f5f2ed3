package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/poller"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

type imageFixture struct {
	images    *mocks.MockImageStore
	generator *mocks.MockImageGenerator
	queue     *mocks.MockTaskQueue
	probe     *mocks.MockImageProbe
	observer  *mocks.MockPollObserver
	svc       *imageService
	chunkID   int64
}

func newImageFixture(t *testing.T) *imageFixture {
	t.Helper()
	ctx := context.Background()

	metatexts := mocks.NewMockMetatextStore()
	chunks := mocks.NewMockChunkStore()

	metatext := &domain.Metatext{Title: "Walden", OwnerID: "user-1"}
	require.NoError(t, metatexts.Save(ctx, metatext))
	chunk := &domain.Chunk{MetatextID: metatext.ID, Text: "I went to the woods"}
	require.NoError(t, chunks.SaveBatch(ctx, []*domain.Chunk{chunk}))

	f := &imageFixture{
		images:    mocks.NewMockImageStore(),
		generator: mocks.NewMockImageGenerator(),
		queue:     mocks.NewMockTaskQueue(),
		probe:     mocks.NewMockImageProbe(),
		observer:  mocks.NewMockPollObserver(),
		chunkID:   chunk.ID,
	}

	svc, err := NewImageService(ImageServiceConfig{
		MetatextStore: metatexts,
		ChunkStore:    chunks,
		ImageStore:    f.images,
		Generator:     f.generator,
		TaskQueue:     f.queue,
		Poller: poller.New(poller.Config{
			Probe:    f.probe,
			Timeout:  2 * time.Second,
			Interval: 10 * time.Millisecond,
			Observer: f.observer,
		}),
		PublicBaseURL: "https://cdn.test/",
	})
	require.NoError(t, err)
	f.svc = svc.(*imageService)
	t.Cleanup(f.svc.Close)
	return f
}

func TestImageService_Generate(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	gen, err := f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "  a cabin by a pond "})
	require.NoError(t, err)

	assert.Equal(t, "a cabin by a pond", gen.Image.Prompt)
	assert.NotZero(t, gen.Image.ID)
	assert.True(t, strings.HasPrefix(gen.Image.Path, "/images/chunk-"))
	assert.True(t, strings.HasSuffix(gen.Image.Path, ".png"))

	require.NotNil(t, gen.Poll)
	assert.Equal(t, "https://cdn.test"+gen.Image.Path, gen.Poll.URL)
	assert.Equal(t, gen.Image.ID, gen.Poll.ImageID)
	assert.Equal(t, f.chunkID, gen.Poll.ChunkID)

	tasks := f.queue.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskTypeWriteImage, tasks[0].Type)
	assert.Equal(t, gen.Image.Path, tasks[0].PayloadValue("path"))
	assert.Equal(t, "https://generator.test/out/1.png", tasks[0].PayloadValue("source_url"))

	// the file shows up later; the poll resolves once the probe succeeds
	poll, err := f.svc.GetPoll(ctx, "user-1", gen.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatePolling, poll.State)

	f.probe.SetReady(true)
	require.Eventually(t, func() bool {
		poll, err := f.svc.GetPoll(ctx, "user-1", gen.Poll.ID)
		return err == nil && poll.State == domain.PollStateResolved
	}, time.Second, 5*time.Millisecond)

	// outcomes are reported just after the state changes
	require.Eventually(t, func() bool {
		_, outcomes := f.observer.Snapshot()
		return outcomes[domain.PollStateResolved] == 1
	}, time.Second, 5*time.Millisecond)
	attempts, outcomes := f.observer.Snapshot()
	assert.GreaterOrEqual(t, attempts, 1)
	assert.Len(t, outcomes, 1)
}

func TestImageService_Generate_Errors(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Generate(ctx, "user-2", f.chunkID, driving.GenerateImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.generator.Err = domain.ErrServiceUnavailable
	_, err = f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	f.generator.Err = nil
	f.queue.EnqueueErr = errors.New("queue down")
	_, err = f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestImageService_Generate_EnqueueFailureKeepsNoImage(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	f.queue.EnqueueErr = errors.New("queue down")
	_, err := f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "a heron"})
	require.ErrorContains(t, err, "queue down")

	images, err := f.svc.ListImages(ctx, "user-1", f.chunkID)
	require.NoError(t, err)
	assert.Empty(t, images)

	_, err = f.svc.LatestImage(ctx, "user-1", f.chunkID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.svc.polls.Len(), "no poll should start for an unqueued image")

	// the next request succeeds normally
	f.queue.EnqueueErr = nil
	gen, err := f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "a heron"})
	require.NoError(t, err)
	latest, err := f.svc.LatestImage(ctx, "user-1", f.chunkID)
	require.NoError(t, err)
	assert.Equal(t, gen.Image.ID, latest.ID)
}

func TestImageService_CancelPoll(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	gen, err := f.svc.Generate(ctx, "user-1", f.chunkID, driving.GenerateImageRequest{Prompt: "fog"})
	require.NoError(t, err)

	_, err = f.svc.CancelPoll(ctx, "user-2", gen.Poll.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	poll, err := f.svc.CancelPoll(ctx, "user-1", gen.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStateCancelled, poll.State)
	assert.Equal(t, domain.ErrImagePollCancelled.Error(), poll.Error)
	assert.NotNil(t, poll.FinishedAt)

	// cancelling again is a no-op
	poll, err = f.svc.CancelPoll(ctx, "user-1", gen.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStateCancelled, poll.State)

	_, err = f.svc.GetPoll(ctx, "user-1", "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImageService_ListAndLatest(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	_, err := f.svc.LatestImage(ctx, "user-1", f.chunkID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	images, err := f.svc.ListImages(ctx, "user-1", f.chunkID)
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// saved out of creation order; the newest has the lowest ID
	require.NoError(t, f.images.Save(ctx, &domain.AiImage{ID: 1, ChunkID: f.chunkID, CreatedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, f.images.Save(ctx, &domain.AiImage{ID: 2, ChunkID: f.chunkID, CreatedAt: base}))
	require.NoError(t, f.images.Save(ctx, &domain.AiImage{ID: 3, ChunkID: f.chunkID, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, f.images.Save(ctx, &domain.AiImage{ID: 4, ChunkID: f.chunkID, CreatedAt: base.Add(time.Hour)}))

	latest, err := f.svc.LatestImage(ctx, "user-1", f.chunkID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.ID)

	images, err = f.svc.ListImages(ctx, "user-1", f.chunkID)
	require.NoError(t, err)
	ids := make([]int64, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	assert.Equal(t, []int64{1, 4, 3, 2}, ids)
}
