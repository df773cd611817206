// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/MKhiriev/go-contact-attrs/internal/contact"
	"github.com/MKhiriev/go-contact-attrs/internal/logger"
	"github.com/MKhiriev/go-contact-attrs/internal/mock"
	"github.com/MKhiriev/go-contact-attrs/internal/reminder"
	"github.com/MKhiriev/go-contact-attrs/internal/store"
	"github.com/MKhiriev/go-contact-attrs/models"
)

var testNow = time.Unix(1_700_000_000, 0)

// fixedIDs is a utils.IDGenerator returning a constant id.
type fixedIDs string

func (f fixedIDs) Generate() string { return string(f) }

func newTestContactSvc(t *testing.T, ctrl *gomock.Controller) (*contactService, *mock.MockContactRepository) {
	t.Helper()
	repo := mock.NewMockContactRepository(ctrl)
	svc := NewContactService(repo, reminder.DefaultThresholds(), fixedIDs("op-1"), logger.Nop()).(*contactService)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func recordOf(t *testing.T, u *contact.User) models.ContactRecord {
	t.Helper()
	data, err := u.Serialize()
	require.NoError(t, err)
	return models.ContactRecord{Handle: u.Handle(), Data: data, Pending: u.PendingCount(), UpdatedAt: testNow}
}

func userOf(t *testing.T, rec models.ContactRecord) *contact.User {
	t.Helper()
	u, dropped, err := contact.Unserialize(rec.Data)
	require.NoError(t, err)
	require.Empty(t, dropped)
	return u
}

// captureSave expects one Save and stores the record it receives.
func captureSave(repo *mock.MockContactRepository, into *models.ContactRecord) {
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.ContactRecord) error {
			*into = rec
			return nil
		})
}

// memoryRepo backs the mock with a map so multi-step flows can be tested.
func memoryRepo(repo *mock.MockContactRepository) map[string]models.ContactRecord {
	var mu sync.Mutex
	rows := make(map[string]models.ContactRecord)

	repo.EXPECT().Get(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(_ context.Context, handle string) (models.ContactRecord, error) {
			mu.Lock()
			defer mu.Unlock()
			rec, ok := rows[handle]
			if !ok {
				return models.ContactRecord{}, store.ErrContactNotFound
			}
			return rec, nil
		})
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(_ context.Context, rec models.ContactRecord) error {
			mu.Lock()
			defer mu.Unlock()
			rows[rec.Handle] = rec
			return nil
		})
	repo.EXPECT().ListPending(gomock.Any()).AnyTimes().
		DoAndReturn(func(_ context.Context) ([]models.ContactRecord, error) {
			mu.Lock()
			defer mu.Unlock()
			var out []models.ContactRecord
			for _, rec := range rows {
				if rec.Pending > 0 {
					out = append(out, rec)
				}
			}
			return out, nil
		})
	return rows
}

// ── ApplyRemote ───────────────────────────────────────────────────────────────

func TestApplyRemote_CreatesRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	ctx := context.Background()

	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)
	var saved models.ContactRecord
	captureSave(repo, &saved)

	require.NoError(t, svc.ApplyRemote(ctx, "h1", "firstname", []byte("Ann"), ""))

	assert.Equal(t, "h1", saved.Handle)
	assert.Zero(t, saved.Pending)
	assert.Equal(t, testNow, saved.UpdatedAt)

	u := userOf(t, saved)
	v, err := u.Attribute(attr.FirstName)
	require.NoError(t, err)
	assert.Equal(t, []byte("Ann"), v)
}

func TestApplyRemote_ClearsPendingFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	u := contact.New("h1", "")
	require.NoError(t, u.SetAttribute(attr.Ed25519PubKey, []byte("old"), "v1", attr.SourceLocal))
	_, err := u.MarkChanged(attr.Ed25519PubKey)
	require.NoError(t, err)

	repo.EXPECT().Get(gomock.Any(), "h1").Return(recordOf(t, u), nil)
	var saved models.ContactRecord
	captureSave(repo, &saved)

	require.NoError(t, svc.ApplyRemote(context.Background(), "h1", "+puEd255", []byte("new"), "v2"))

	assert.Zero(t, saved.Pending)
	got := userOf(t, saved)
	ver, err := got.AttributeVersion(attr.Ed25519PubKey)
	require.NoError(t, err)
	assert.Equal(t, "v2", ver)
}

func TestApplyRemote_NilValueIsTombstone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)
	var saved models.ContactRecord
	captureSave(repo, &saved)

	require.NoError(t, svc.ApplyRemote(context.Background(), "h1", "^!lang", nil, ""))

	got := userOf(t, saved)
	assert.True(t, got.IsAttributeValid(attr.Language))
	_, err := got.Attribute(attr.Language)
	assert.ErrorIs(t, err, attr.ErrAttrNotFound)
	assert.NotErrorIs(t, err, attr.ErrAttrStale)
}

func TestApplyRemote_UnknownNameTouchesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestContactSvc(t, ctrl)

	err := svc.ApplyRemote(context.Background(), "h1", "*!nosuchattr", []byte("x"), "")
	assert.ErrorIs(t, err, attr.ErrUnknownAttrName)

	err = svc.ApplyRemote(context.Background(), "h1", "", []byte("x"), "")
	assert.ErrorIs(t, err, attr.ErrInvalidAttrName)
}

func TestApplyRemote_SaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(store.ErrTransient)

	err := svc.ApplyRemote(context.Background(), "h1", "lastname", []byte("Lee"), "")
	assert.ErrorIs(t, err, store.ErrTransient)
}

func TestApplyRemote_CorruptRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{Handle: "h1", Data: []byte("garbage")}, nil)

	err := svc.ApplyRemote(context.Background(), "h1", "lastname", []byte("Lee"), "")
	assert.ErrorIs(t, err, ErrCorruptRecord)
	assert.ErrorIs(t, err, contact.ErrMalformedSnapshot)
}

// ── InvalidateRemote ──────────────────────────────────────────────────────────

func TestInvalidateRemote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	u := contact.New("h1", "")
	require.NoError(t, u.SetAttribute(attr.FirstName, []byte("Ann"), "", attr.SourceRemote))

	repo.EXPECT().Get(gomock.Any(), "h1").Return(recordOf(t, u), nil)
	var saved models.ContactRecord
	captureSave(repo, &saved)

	require.NoError(t, svc.InvalidateRemote(context.Background(), "h1", "firstname", "bogus"))

	got := userOf(t, saved)
	assert.False(t, got.IsAttributeValid(attr.FirstName))
	_, err := got.Attribute(attr.FirstName)
	assert.ErrorIs(t, err, attr.ErrAttrStale)
	assert.ErrorIs(t, err, attr.ErrAttrNotFound)
}

func TestInvalidateRemote_OnlyUnknownNames(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestContactSvc(t, ctrl)

	// no repository calls expected
	assert.NoError(t, svc.InvalidateRemote(context.Background(), "h1", "bogus", "*!alsobogus"))
}

func TestInvalidateRemote_MissingRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)

	assert.NoError(t, svc.InvalidateRemote(context.Background(), "h1", "firstname"))
}

// ── EditLocal ─────────────────────────────────────────────────────────────────

func TestEditLocal_MarksPendingOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	rows := memoryRepo(repo)
	ctx := context.Background()

	newly, err := svc.EditLocal(ctx, "h1", attr.FirstName, []byte("Ann"))
	require.NoError(t, err)
	assert.True(t, newly)
	assert.Equal(t, 1, rows["h1"].Pending)

	newly, err = svc.EditLocal(ctx, "h1", attr.FirstName, []byte("Anna"))
	require.NoError(t, err)
	assert.False(t, newly)
	assert.Equal(t, 1, rows["h1"].Pending)

	v, _, err := svc.Attribute(ctx, "h1", attr.FirstName)
	require.NoError(t, err)
	assert.Equal(t, []byte("Anna"), v)
}

func TestEditLocal_KeepsVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	memoryRepo(repo)
	ctx := context.Background()

	require.NoError(t, svc.ApplyRemote(ctx, "h1", "*keyring", []byte("k1"), "ver-7"))
	_, err := svc.EditLocal(ctx, "h1", attr.KeyRing, []byte("k2"))
	require.NoError(t, err)

	v, ver, err := svc.Attribute(ctx, "h1", attr.KeyRing)
	require.NoError(t, err)
	assert.Equal(t, []byte("k2"), v)
	assert.Equal(t, "ver-7", ver)
}

func TestEditLocal_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	_, err := svc.EditLocal(context.Background(), "", attr.FirstName, nil)
	assert.ErrorIs(t, err, ErrEmptyHandle)

	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)
	_, err = svc.EditLocal(context.Background(), "h1", attr.Kind(999), nil)
	assert.ErrorIs(t, err, attr.ErrUnknownAttrKind)
}

// ── Remove / Attribute ────────────────────────────────────────────────────────

func TestRemove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	memoryRepo(repo)
	ctx := context.Background()

	// missing record
	require.NoError(t, svc.Remove(ctx, "h1", attr.Country))

	require.NoError(t, svc.ApplyRemote(ctx, "h1", "country", []byte("NZ"), ""))
	require.NoError(t, svc.Remove(ctx, "h1", attr.Country))
	require.NoError(t, svc.Remove(ctx, "h1", attr.Country))

	_, _, err := svc.Attribute(ctx, "h1", attr.Country)
	assert.ErrorIs(t, err, attr.ErrAttrNotFound)
}

func TestRemove_AbsentAttributeDoesNotSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	u := contact.New("h1", "")
	require.NoError(t, u.SetAttribute(attr.FirstName, []byte("Ann"), "", attr.SourceRemote))
	repo.EXPECT().Get(gomock.Any(), "h1").Return(recordOf(t, u), nil)
	// no Save expected

	require.NoError(t, svc.Remove(context.Background(), "h1", attr.Country))
}

func TestAttribute_MissingRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)

	_, _, err := svc.Attribute(context.Background(), "h1", attr.FirstName)
	assert.ErrorIs(t, err, store.ErrContactNotFound)
}

// ── Reminder ──────────────────────────────────────────────────────────────────

func TestRecordReminder_SavesOnlyOnChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	rows := memoryRepo(repo)
	ctx := context.Background()

	changed, err := svc.RecordReminder(ctx, "h1", reminder.MKExported, testNow)
	require.NoError(t, err)
	assert.True(t, changed)
	first := rows["h1"]
	assert.Equal(t, 1, first.Pending)

	changed, err = svc.RecordReminder(ctx, "h1", reminder.MKExported, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	st := userOf(t, rows["h1"]).ReminderState()
	assert.True(t, st.MKExported)
}

func TestRecordReminder_UnknownDetail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, store.ErrContactNotFound)

	_, err := svc.RecordReminder(context.Background(), "h1", reminder.Detail(0x80), testNow)
	assert.ErrorIs(t, err, reminder.ErrUnknownDetail)
}

func TestRecordReminder_ConcurrentDetailsAllKept(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	rows := memoryRepo(repo)
	ctx := context.Background()

	details := []reminder.Detail{reminder.LastSuccess, reminder.LastSkipped, reminder.MKExported, reminder.DontShow, reminder.LastLogin}

	var wg sync.WaitGroup
	for _, d := range details {
		wg.Add(1)
		go func(d reminder.Detail) {
			defer wg.Done()
			_, err := svc.RecordReminder(ctx, "h1", d, testNow)
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	st := userOf(t, rows["h1"]).ReminderState()
	assert.Equal(t, testNow.Unix(), st.LastSuccess.Unix)
	assert.Equal(t, testNow.Unix(), st.LastSkipped.Unix)
	assert.Equal(t, testNow.Unix(), st.LastLogin.Unix)
	assert.True(t, st.MKExported)
	assert.True(t, st.DontShow)
}

func TestShouldShowReminder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	memoryRepo(repo)
	ctx := context.Background()

	created := testNow.Add(-365 * 24 * time.Hour)

	// nothing recorded yet
	show, err := svc.ShouldShowReminder(ctx, "h1", created, testNow, false)
	require.NoError(t, err)
	assert.True(t, show)

	// account too young
	show, err = svc.ShouldShowReminder(ctx, "h1", testNow.Add(-time.Hour), testNow, false)
	require.NoError(t, err)
	assert.False(t, show)

	_, err = svc.RecordReminder(ctx, "h1", reminder.MKExported, testNow)
	require.NoError(t, err)

	show, err = svc.ShouldShowReminder(ctx, "h1", created, testNow, false)
	require.NoError(t, err)
	assert.False(t, show)
}

func TestShouldShowReminder_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	repo.EXPECT().Get(gomock.Any(), "h1").Return(models.ContactRecord{}, errors.New("db down"))

	_, err := svc.ShouldShowReminder(context.Background(), "h1", time.Time{}, testNow, true)
	assert.Error(t, err)
}

// ── Pending / Acknowledge ─────────────────────────────────────────────────────

func TestPending_SkipsCorruptRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	u := contact.New("good", "")
	require.NoError(t, u.SetAttribute(attr.BirthYear, []byte("1990"), "", attr.SourceLocal))
	_, err := u.MarkChanged(attr.BirthYear)
	require.NoError(t, err)

	repo.EXPECT().ListPending(gomock.Any()).Return([]models.ContactRecord{
		{Handle: "bad", Data: []byte("{"), Pending: 1},
		recordOf(t, u),
	}, nil)

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "good", pending[0].Handle)
	assert.Equal(t, []attr.ChangeKey{attr.KeyFor(attr.Birthday)}, pending[0].Keys)
	require.Len(t, pending[0].Attributes, 1)
	assert.Equal(t, attr.BirthYear, pending[0].Attributes[0].Kind)
}

func TestPending_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	repo.EXPECT().ListPending(gomock.Any()).Return(nil, store.ErrExecutingQuery)

	_, err := svc.Pending(context.Background())
	assert.ErrorIs(t, err, store.ErrExecutingQuery)
}

func TestAcknowledge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	rows := memoryRepo(repo)
	ctx := context.Background()

	_, err := svc.EditLocal(ctx, "h1", attr.FirstName, []byte("Ann"))
	require.NoError(t, err)
	_, err = svc.EditLocal(ctx, "h1", attr.LastName, []byte("Lee"))
	require.NoError(t, err)
	require.Equal(t, 2, rows["h1"].Pending)

	require.NoError(t, svc.Acknowledge(ctx, "h1", attr.KeyFor(attr.FirstName)))
	assert.Equal(t, 1, rows["h1"].Pending)

	require.NoError(t, svc.Acknowledge(ctx, "h1"))
	assert.Zero(t, rows["h1"].Pending)

	// missing record
	require.NoError(t, svc.Acknowledge(ctx, "nobody"))
}

func TestAcknowledge_NoChangeSkipsSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	repo.EXPECT().Get(gomock.Any(), "h1").Return(recordOf(t, contact.New("h1", "")), nil)
	// no Save expected

	require.NoError(t, svc.Acknowledge(context.Background(), "h1"))
}

// ── Contact / Upsert / Forget ─────────────────────────────────────────────────

func TestUpsert_SkipsTemporary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestContactSvc(t, ctrl)

	u := contact.New("tmp", "")
	u.SetTemporary(true)
	assert.NoError(t, svc.Upsert(context.Background(), u))

	assert.ErrorIs(t, svc.Upsert(context.Background(), nil), ErrEmptyHandle)
}

func TestUpsertThenContact(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)
	memoryRepo(repo)
	ctx := context.Background()

	u := contact.New("h1", "ann@example.com")
	u.SetVisibility(contact.VisibilityVisible, testNow)
	require.NoError(t, svc.Upsert(ctx, u))

	got, err := svc.Contact(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email())
	assert.Equal(t, contact.VisibilityVisible, got.Visibility())
}

func TestForget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo := newTestContactSvc(t, ctrl)

	repo.EXPECT().Delete(gomock.Any(), "h1").Return(nil)
	require.NoError(t, svc.Forget(context.Background(), "h1"))

	repo.EXPECT().Delete(gomock.Any(), "h2").Return(store.ErrExecutingStatement)
	err := svc.Forget(context.Background(), "h2")
	assert.ErrorIs(t, err, store.ErrExecutingStatement)

	assert.ErrorIs(t, svc.Forget(context.Background(), ""), ErrEmptyHandle)
}
