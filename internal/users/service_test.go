package users

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthfire/internal/config"
	"birthfire/internal/constants"
	"birthfire/internal/mocks"
	"birthfire/internal/models"
	"birthfire/internal/scheduler"
	"birthfire/internal/store"
)

type serviceFixture struct {
	users   *mocks.MockUserStore
	jobs    *mocks.MockBirthdayJobStore
	lockMgr *mocks.MockDistributedLockManager
	service *Service

	submits int
	deletes int
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	cfg, err := config.New("test-instance")
	require.NoError(t, err)

	f := &serviceFixture{
		users:   &mocks.MockUserStore{},
		lockMgr: &mocks.MockDistributedLockManager{},
	}

	schedules := &mocks.MockScheduleStore{}
	f.jobs = &mocks.MockBirthdayJobStore{
		SubmitFunc: func(ctx context.Context, jobID, userID string, scheduledAt time.Time) error {
			f.submits++
			return nil
		},
	}
	schedules.DeleteFunc = func(ctx context.Context, userID string) error {
		f.deletes++
		return nil
	}

	engine := scheduler.NewEngine(schedules, f.jobs, cfg, zerolog.Nop())
	f.service = NewService(f.users, engine, f.lockMgr, zerolog.Nop())
	return f
}

func verifiedUser(id string) models.User {
	return models.User{
		ID:            id,
		Name:          "Ayu",
		Email:         "ayu@example.com",
		Birthday:      "1990-12-14",
		BirthdayMD:    "12-14",
		Timezone:      "Asia/Jakarta",
		EmailVerified: true,
	}
}

func TestService_CreateSchedulesUser(t *testing.T) {
	f := newServiceFixture(t)

	f.users.CreateFunc = func(ctx context.Context, user *models.User) (string, error) {
		user.ID = "user-1"
		return "user-1", nil
	}

	created, err := f.service.Create(context.Background(), verifiedUser(""))
	require.NoError(t, err)

	assert.Equal(t, "user-1", created.ID)
	assert.Equal(t, 1, f.submits)
}

func TestService_CreateStoreErrorSkipsScheduling(t *testing.T) {
	f := newServiceFixture(t)

	f.users.CreateFunc = func(ctx context.Context, user *models.User) (string, error) {
		return "", store.ErrEmailTaken
	}

	_, err := f.service.Create(context.Background(), verifiedUser(""))
	assert.ErrorIs(t, err, store.ErrEmailTaken)
	assert.Zero(t, f.submits)
}

func TestService_FindByID_Missing(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestService_UpdateReschedules(t *testing.T) {
	f := newServiceFixture(t)

	updated := verifiedUser("user-1")
	updated.Birthday = "1990-06-20"
	updated.BirthdayMD = "06-20"
	f.users.UpdateFunc = func(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
		return &updated, nil
	}

	birthday := "1990-06-20"
	got, err := f.service.Update(context.Background(), "user-1", models.UserPatch{Birthday: &birthday})
	require.NoError(t, err)

	assert.Equal(t, "06-20", got.BirthdayMD)
	assert.Equal(t, 1, f.submits)
}

func TestService_DeleteRemovesSchedule(t *testing.T) {
	f := newServiceFixture(t)

	var storeDeleted bool
	f.users.DeleteFunc = func(ctx context.Context, userID string) error {
		storeDeleted = true
		return nil
	}

	require.NoError(t, f.service.Delete(context.Background(), "user-1"))
	assert.True(t, storeDeleted)
	assert.Equal(t, 1, f.deletes)
}

func TestService_ScheduleAll(t *testing.T) {
	f := newServiceFixture(t)

	var acquired, released []int
	f.lockMgr.AcquireFunc = func(ctx context.Context, lockID int) error {
		acquired = append(acquired, lockID)
		return nil
	}
	f.lockMgr.ReleaseFunc = func(ctx context.Context, lockID int) error {
		released = append(released, lockID)
		return nil
	}

	f.users.ScanAllFunc = func(ctx context.Context, fn func(models.User) error) error {
		for _, id := range []string{"user-1", "user-2", "user-3"} {
			if err := fn(verifiedUser(id)); err != nil {
				return err
			}
		}
		return nil
	}

	require.NoError(t, f.service.ScheduleAll(context.Background()))

	assert.Equal(t, 3, f.submits)
	assert.Equal(t, []int{constants.BootstrapLock}, acquired)
	assert.Equal(t, []int{constants.BootstrapLock}, released)
}

func TestService_ScheduleAll_PerUserFailureContinues(t *testing.T) {
	f := newServiceFixture(t)

	f.jobs.SubmitFunc = func(ctx context.Context, jobID, userID string, scheduledAt time.Time) error {
		if userID == "user-2" {
			return errors.New("backend down")
		}
		f.submits++
		return nil
	}

	f.users.ScanAllFunc = func(ctx context.Context, fn func(models.User) error) error {
		for _, id := range []string{"user-1", "user-2", "user-3"} {
			if err := fn(verifiedUser(id)); err != nil {
				return err
			}
		}
		return nil
	}

	require.NoError(t, f.service.ScheduleAll(context.Background()),
		"one unschedulable user must not abort the bootstrap scan")
	assert.Equal(t, 2, f.submits)
}

func TestService_StartRescheduleLoop(t *testing.T) {
	f := newServiceFixture(t)

	var mu sync.Mutex
	var scans int
	f.users.ScanAllFunc = func(ctx context.Context, fn func(models.User) error) error {
		mu.Lock()
		scans++
		mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.service.StartRescheduleLoop(ctx, "@every 20ms"))
	time.Sleep(150 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, scans, 2, "the scan must recur on the configured schedule")
}

func TestService_StartRescheduleLoop_BadSchedule(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.StartRescheduleLoop(context.Background(), "not-a-schedule")
	assert.Error(t, err)
}

func TestService_ScheduleAll_LockFailureAborts(t *testing.T) {
	f := newServiceFixture(t)

	f.lockMgr.AcquireFunc = func(ctx context.Context, lockID int) error {
		return errors.New("lock held elsewhere")
	}

	err := f.service.ScheduleAll(context.Background())
	assert.Error(t, err)
	assert.Zero(t, f.submits)
}
