package jobs

import (
	"context"
	"palcontent/config"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/testutil"
	"palcontent/internal/types"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTechHubActivityJob_UsesFranchiseRoster(t *testing.T) {
	db := testutil.NewDB(t)
	franchisee := testutil.SeedFranchisee(t, db, "JOB")
	testutil.SeedTechnician(t, db, franchisee, "JOB-0001", "5550001111")
	inactive := testutil.SeedTechnician(t, db, franchisee, "JOB-0002", "5550002222")
	require.NoError(t, db.SQL.Model(inactive).Update("is_active", false).Error)

	recorder := &testutil.Recorder{}
	hub := services.NewTechHubService(recorder, 50)
	author := services.ChatAuthor{ID: uuid.NewString(), Name: "Owner", FranchiseeID: franchisee.ID}
	_, err := hub.Post(context.Background(), author, types.TechHubGroupRoom, "morning all")
	require.NoError(t, err)

	job := NewTechHubActivityJob(hub, repositories.NewTechnicianRepository(nil), db, time.Minute)
	assert.Equal(t, services.Interval, job.Schedule())
	assert.Equal(t, time.Minute, job.Interval())

	require.NoError(t, job.Execute(context.Background()))

	messages, err := hub.Messages(franchisee.ID, types.TechHubGroupRoom)
	require.NoError(t, err)
	last := messages[len(messages)-1]
	assert.Equal(t, types.ChatKindActivity, last.Kind)
	assert.Contains(t, last.Text, "Tech JOB-0001")
	assert.NotContains(t, last.Text, "Tech JOB-0002")
}

func TestTechHubActivityJob_NoFeedsIsNoop(t *testing.T) {
	recorder := &testutil.Recorder{}
	hub := services.NewTechHubService(recorder, 50)
	job := NewTechHubActivityJob(hub, nil, testutil.NewDB(t), time.Minute)

	require.NoError(t, job.Execute(context.Background()))
	assert.Empty(t, recorder.Events())
}

func TestTechHubActivityJob_StopsOnCancel(t *testing.T) {
	hub := services.NewTechHubService(&testutil.Recorder{}, 50)
	_, err := hub.Post(context.Background(),
		services.ChatAuthor{ID: uuid.NewString(), Name: "A", FranchiseeID: uuid.New()},
		types.TechHubGroupRoom, "hi")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := NewTechHubActivityJob(hub, nil, testutil.NewDB(t), time.Minute)
	assert.ErrorIs(t, job.Execute(ctx), context.Canceled)
}

func TestRegisterAllJobs(t *testing.T) {
	scheduler := services.NewSchedulerService()
	svc := services.Service{TechHub: services.NewTechHubService(nil, 10)}
	db := testutil.NewDB(t)
	repos := repositories.New(db)

	require.NoError(t, RegisterAllJobs(scheduler, config.Config{SchedulerEnabled: false}, svc, repos, db))

	err := RegisterAllJobs(scheduler, config.Config{SchedulerEnabled: true}, svc, repos, db)
	assert.Error(t, err, "a zero activity interval is rejected")

	require.NoError(t, RegisterAllJobs(
		scheduler,
		config.Config{SchedulerEnabled: true, TechHubActivityInterval: time.Minute},
		svc,
		repos,
		db,
	))
}
